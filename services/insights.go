package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"propscan/models"
	"propscan/utils"
)

const topScoredLimit = 5

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate summarizes a scored catalog. Unscored properties count toward
// totals but not toward score statistics.
func (s *InsightService) Generate(props []*models.CanonicalProperty) *models.InsightReport {
	report := &models.InsightReport{
		ByGrade:   make(map[models.Grade]int),
		ByCity:    make(map[string]int),
		BySource:  make(map[string]int),
		ByOutcome: make(map[models.ResolutionOutcome]int),
	}

	if len(props) == 0 {
		return report
	}

	report.TotalProperties = len(props)

	var priced, scored []*models.CanonicalProperty
	for _, p := range props {
		if p.Price > 0 {
			priced = append(priced, p)
		}
		if p.Score != nil {
			scored = append(scored, p)
			report.ByGrade[p.Score.Grade]++
		}
		if p.City != "" {
			report.ByCity[p.City]++
		}
		report.BySource[p.Provenance.Source]++
		report.ByOutcome[p.Provenance.ResolutionOutcome]++
		if p.Provenance.Estimated.MonthlyRent {
			report.EstimatedRent++
		}
	}

	// Price stats (only properties with a known price)
	if len(priced) > 0 {
		report.MinPrice = priced[0].Price
		report.MaxPrice = priced[0].Price
		var total float64
		for _, p := range priced {
			total += p.Price
			if p.Price < report.MinPrice {
				report.MinPrice = p.Price
			}
			if p.Price > report.MaxPrice {
				report.MaxPrice = p.Price
			}
		}
		report.AveragePrice = round2(total / float64(len(priced)))
	}

	if len(scored) > 0 {
		var total float64
		for _, p := range scored {
			total += p.Score.Value
		}
		report.AverageScore = round2(total / float64(len(scored)))

		ranked := Rank(scored)
		if len(ranked) > topScoredLimit {
			ranked = ranked[:topScoredLimit]
		}
		report.TopScored = ranked
	}

	s.logger.Debug("[insights] Report over %d properties, %d scored", report.TotalProperties, len(scored))
	return report
}

func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 58)
	thin := strings.Repeat("─", 58)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  INVESTMENT CATALOG INSIGHTS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Properties resolved : \033[1m%d\033[0m\n", r.TotalProperties)
	fmt.Fprintf(w, "  Average score       : \033[1m%.1f\033[0m\n", r.AverageScore)
	fmt.Fprintf(w, "  Rent estimated      : \033[1m%d\033[0m\n", r.EstimatedRent)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Price Statistics\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.AveragePrice > 0 {
		fmt.Fprintf(w, "  Average price : \033[1;32m$%s\033[0m\n", money(r.AveragePrice))
		fmt.Fprintf(w, "  Minimum price : \033[1;32m$%s\033[0m\n", money(r.MinPrice))
		fmt.Fprintf(w, "  Maximum price : \033[1;32m$%s\033[0m\n", money(r.MaxPrice))
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Grades\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, g := range []models.Grade{models.GradeA, models.GradeB, models.GradeC, models.GradeD} {
		fmt.Fprintf(w, "  %s  %s (%d)\n", g, strings.Repeat("█", r.ByGrade[g]), r.ByGrade[g])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Top %d Opportunities\033[0m\n", topScoredLimit)
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopScored) == 0 {
		fmt.Fprintf(w, "  No scored properties\n")
	} else {
		for i, p := range r.TopScored {
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %-36s \033[1;32m%5.1f %s\033[0m  cash flow $%s/mo\n",
				i+1, truncate(p.Address, 34), p.Score.Value, p.Score.Grade, money(models.Value(p.Financials.CashFlow)))
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Identity Resolution\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, o := range []models.ResolutionOutcome{models.OutcomeAuthoritative, models.OutcomeSourceFallback, models.OutcomeGeneratedFallback} {
		fmt.Fprintf(w, "  %-20s %d\n", o, r.ByOutcome[o])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Properties by City\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.ByCity) == 0 {
		fmt.Fprintf(w, "  No location data\n")
	} else {
		type cityCount struct {
			city  string
			count int
		}
		var cities []cityCount
		for city, cnt := range r.ByCity {
			cities = append(cities, cityCount{city, cnt})
		}
		sort.Slice(cities, func(i, j int) bool {
			if cities[i].count != cities[j].count {
				return cities[i].count > cities[j].count
			}
			return cities[i].city < cities[j].city
		})
		for _, c := range cities {
			fmt.Fprintf(w, "  %-30s %s (%d)\n", truncate(c.city, 28), strings.Repeat("█", c.count), c.count)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

// money formats a dollar amount with thousands separators and no cents.
func money(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%.0f", v)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
