package core

// Aggregate computes summary statistics over records.
//
// Sums are taken first and every percentage is derived from them (ratio of
// sums), so large and small localities weigh by population rather than
// equally. A ratio whose denominator sums to 0 is nil.
func Aggregate(records []LocalityRecord) AggregateStats {
	s := AggregateStats{Count: len(records)}

	for _, r := range records {
		s.TotalPop2010 += r.Total2010
		s.TotalPop2022 += r.Total2022
		s.Pop60_2010 += r.Pop60_2010
		s.Pop60_2022 += r.Pop60_2022
	}

	s.Pct2010 = percentOf(s.Pop60_2010, s.TotalPop2010)
	s.Pct2022 = percentOf(s.Pop60_2022, s.TotalPop2022)
	if s.Pct2010 != nil && s.Pct2022 != nil {
		s.PointChange = float64Ptr(*s.Pct2022 - *s.Pct2010)
	}

	s.Abs60Change = s.Pop60_2022 - s.Pop60_2010
	if s.Pop60_2010 > 0 {
		s.Rel60ChangePct = float64Ptr((s.Pop60_2022/s.Pop60_2010 - 1) * 100)
	}

	return s
}

// percentOf returns num/den*100, or nil when den is not positive.
func percentOf(num, den float64) *float64 {
	if den <= 0 {
		return nil
	}
	return float64Ptr(num / den * 100)
}
