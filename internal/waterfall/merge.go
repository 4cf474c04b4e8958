package waterfall

import (
	"github.com/sells-group/course-intel/internal/contact"
	"github.com/sells-group/course-intel/internal/model"
)

// Merge folds a stage's accepted contacts into acc. On a name collision the
// earlier contact wins, unless the later one has a counted email and the
// earlier one does not. An upgrade keeps the earlier name and any detail only
// the earlier contact had. New names append in provider order.
func Merge(acc, add []model.Contact, minConfidence int) []model.Contact {
	out := append([]model.Contact(nil), acc...)
	index := make(map[string]int, len(out))
	for i, c := range out {
		if k := contact.NameKey(c.Name); k != "" {
			index[k] = i
		}
	}

	for _, c := range add {
		k := contact.NameKey(c.Name)
		if k == "" {
			continue
		}
		i, ok := index[k]
		if !ok {
			index[k] = len(out)
			out = append(out, c)
			continue
		}
		if c.Counts(minConfidence) && !out[i].Counts(minConfidence) {
			out[i] = upgrade(out[i], c)
		}
	}
	return out
}

func upgrade(earlier, later model.Contact) model.Contact {
	later.Name = earlier.Name
	if later.Title == "" {
		later.Title = earlier.Title
	}
	if later.LinkedInURL == "" {
		later.LinkedInURL, later.LinkedInMethod = earlier.LinkedInURL, earlier.LinkedInMethod
	}
	if later.Phone == "" {
		later.Phone = earlier.Phone
	}
	if later.TenureYears == nil {
		later.TenureYears, later.TenureStartDate = earlier.TenureYears, earlier.TenureStartDate
	}
	if len(later.PreviousClubs) == 0 {
		later.PreviousClubs = earlier.PreviousClubs
	}
	if later.PersonID == "" {
		later.PersonID = earlier.PersonID
	}
	return later
}
