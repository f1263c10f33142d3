package core

// NCCategories is the closed set of non-conformity categories accepted in
// slots and filters. Values are stored normalized (lowercase).
var NCCategories = []string{
	"etichettatura",
	"igiene",
	"tracciabilita",
	"benessere animale",
	"fitosanitari",
	"documentale",
	"strutturale",
}

// ValidNCCategory reports membership in the closed category set.
func ValidNCCategory(v string) bool {
	for _, c := range NCCategories {
		if c == v {
			return true
		}
	}
	return false
}
