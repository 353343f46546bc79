package core

import "fmt"

// NationalScope is the scope label when no filter narrows the record set.
const NationalScope = "Argentina"

// View is what the side panel shows for one filter state: either a single
// locality or aggregate stats for the filtered subset.
type View struct {
	Scope    string          `json:"scope"`
	Count    int             `json:"count"`
	Selected *LocalityRecord `json:"selected,omitempty"`
	Stats    *AggregateStats `json:"stats,omitempty"`
}

// BuildView resolves the panel contents for filtered, the result of applying
// spec to ds. An explicit selection wins if it is still inside filtered;
// otherwise a locality filter shows that locality; otherwise the subset is
// aggregated.
func BuildView(ds *Dataset, filtered []LocalityRecord, spec FilterSpec, selectedID string) View {
	if selectedID != "" && containsID(filtered, selectedID) {
		if r, ok := ds.Lookup(selectedID); ok {
			return singleView(r)
		}
	}
	if spec.LocalityID != "" {
		if r, ok := ds.Lookup(spec.LocalityID); ok {
			return singleView(r)
		}
	}

	stats := Aggregate(filtered)
	return View{
		Scope: scopeLabel(ds.Len(), len(filtered), spec),
		Count: stats.Count,
		Stats: &stats,
	}
}

func singleView(r LocalityRecord) View {
	return View{
		Scope:    r.Name + " — " + r.Jurisdiction,
		Count:    1,
		Selected: &r,
	}
}

func scopeLabel(total, filtered int, spec FilterSpec) string {
	switch {
	case filtered == total && spec.Jurisdiction == "" && spec.LocalityID == "":
		return NationalScope
	case spec.Jurisdiction != "" && spec.LocalityID == "":
		return fmt.Sprintf("%s (%d localidades)", spec.Jurisdiction, filtered)
	default:
		return fmt.Sprintf("Filtrado (%d localidades)", filtered)
	}
}

func containsID(records []LocalityRecord, id string) bool {
	for _, r := range records {
		if r.ID == id {
			return true
		}
	}
	return false
}
