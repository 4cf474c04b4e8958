package intel

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/course-intel/internal/model"
)

// PageFacts are the facts parsed directly from a fee/hazard database page.
type PageFacts struct {
	WaterRating model.WaterRating
	WaterCount  *int
	FeeLines    []string
}

var (
	waterRatingRe = regexp.MustCompile(`(?i)water\s*hazards?\s*(?:rating|level)?[\s*]*[:\-–]?[\s*]*([a-z]+)`)
	waterCountRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)water\s+(?:hazards?\s+)?(?:is\s+|comes\s+)?(?:in(?:to)?\s+play\s+)?on\s+(\d{1,3})\s+(?:of\s+(?:the\s+)?\d+\s+)?holes`),
		regexp.MustCompile(`(?i)(\d{1,3})\s+holes?\s+(?:with|feature|featuring|have|having|bring)\s+water`),
		regexp.MustCompile(`(?i)holes\s+with\s+water\s*[:\-]?\s*(\d{1,3})`),
	}
	feeRe = regexp.MustCompile(`\$\s?\d{1,4}`)
)

// ParsePage extracts the water-hazard rating, a hole count when the page
// states one, and lines mentioning dollar amounts. Counts outside 0-18 are
// ignored.
func ParsePage(markdown string) PageFacts {
	var f PageFacts

	for _, m := range waterRatingRe.FindAllStringSubmatch(markdown, -1) {
		if r := model.ParseWaterRating(m[1]); r != "" {
			f.WaterRating = r
			break
		}
	}

	for _, re := range waterCountRes {
		m := re.FindStringSubmatch(markdown)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 0 || n > model.MaxHoles {
			continue
		}
		f.WaterCount = &n
		break
	}

	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && feeRe.MatchString(line) {
			f.FeeLines = append(f.FeeLines, line)
			if len(f.FeeLines) == 10 {
				break
			}
		}
	}
	return f
}
