package http

import (
	"html/template"
	"net/http"
	"strconv"

	"wallet/internal/core"
	"wallet/internal/ledger"
	"wallet/internal/log"
)

var templateFuncs = template.FuncMap{
	"rupees": formatRupees,
}

type expenseRow struct {
	ID            int64
	Date          string
	Description   string
	Category      string
	PaymentMethod string
	Amount        string
}

type sortLink struct {
	Label  string
	Href   string
	Active bool
	Desc   bool
}

// dashboardView is the fully derived page model. It depends only on the
// ledger revision and the requested ordering, which makes it cacheable.
type dashboardView struct {
	Revision       uint64
	Budget         string
	BudgetInput    string
	TotalSpent     string
	Remaining      string
	Count          int
	Status         string
	Rows           []expenseRow
	Columns        []sortLink
	Categories     []string
	PaymentMethods []string
	Today          string
}

var sortColumns = []struct {
	field ledger.SortField
	label string
}{
	{ledger.SortByDate, "Date"},
	{ledger.SortByDescription, "Description"},
	{ledger.SortByCategory, "Category"},
	{ledger.SortByPaymentMethod, "Payment"},
	{ledger.SortByAmount, "Amount"},
}

func (s *Server) viewKey(rev uint64, p SortParams) string {
	return strconv.FormatUint(rev, 10) + "|" + string(p.Field) + "|" + p.Order()
}

func (s *Server) dashboard(p SortParams) dashboardView {
	if v, ok := s.views.Get(s.viewKey(s.ledger.Revision(), p)); ok {
		return v
	}

	lv := s.ledger.View(p.Field, p.Desc)
	sum, expenses := lv.Summary, lv.Expenses
	v := dashboardView{
		Revision:       lv.Revision,
		Budget:         formatRupees(sum.Budget),
		BudgetInput:    sum.Budget.String(),
		TotalSpent:     formatRupees(sum.TotalSpent),
		Remaining:      formatRupees(sum.Remaining),
		Count:          sum.Count,
		Status:         string(sum.Status),
		Rows:           make([]expenseRow, 0, len(expenses)),
		Categories:     core.Categories,
		PaymentMethods: core.PaymentMethods,
	}
	for _, e := range expenses {
		v.Rows = append(v.Rows, expenseRow{
			ID:            e.ID,
			Date:          displayDate(e.Date),
			Description:   e.Description,
			Category:      e.Category,
			PaymentMethod: e.PaymentMethod,
			Amount:        formatRupees(e.Amount),
		})
	}
	for _, c := range sortColumns {
		link := sortLink{Label: c.label, Active: c.field == p.Field}
		order := "asc"
		if link.Active {
			link.Desc = p.Desc
			if !p.Desc {
				order = "desc"
			}
		}
		link.Href = "/?sort=" + string(c.field) + "&order=" + order
		v.Columns = append(v.Columns, link)
	}
	s.views.Set(s.viewKey(lv.Revision, p), v)
	return v
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	v := s.dashboard(ParseSortParams(r.URL.Query()))
	// Today is per request, so it stays out of the cached view.
	v.Today = core.Date{Time: s.now()}.String()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", v); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(),
			"Index template execution failed", log.FieldError, err, "template", "index.html")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}

type summaryResponse struct {
	Budget     core.Money `json:"budget"`
	TotalSpent core.Money `json:"totalSpent"`
	Remaining  core.Money `json:"remaining"`
	Count      int        `json:"count"`
	Status     string     `json:"status"`
	Revision   uint64     `json:"revision"`
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	v := s.ledger.View(ledger.SortByDate, true)
	sum := v.Summary
	writeJSON(w, http.StatusOK, summaryResponse{
		Budget:     sum.Budget,
		TotalSpent: sum.TotalSpent,
		Remaining:  sum.Remaining,
		Count:      sum.Count,
		Status:     string(sum.Status),
		Revision:   v.Revision,
	})
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	p := ParseSortParams(r.URL.Query())
	expenses := s.ledger.ExpensesSorted(p.Field, p.Desc)
	if expenses == nil {
		expenses = []core.Expense{}
	}
	writeJSON(w, http.StatusOK, expenses)
}

// chartData is the labels/values shape the dashboard charts draw from.
type chartData struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

func (s *Server) handleCategoryChart(w http.ResponseWriter, _ *http.Request) {
	breakdown := s.ledger.CategoryBreakdown()
	out := chartData{Labels: make([]string, 0, len(breakdown)), Data: make([]float64, 0, len(breakdown))}
	for _, c := range breakdown {
		out.Labels = append(out.Labels, c.Name)
		out.Data = append(out.Data, c.Amount.Float())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMonthChart(w http.ResponseWriter, _ *http.Request) {
	months := s.ledger.ByMonth()
	out := chartData{Labels: make([]string, 0, len(months)), Data: make([]float64, 0, len(months))}
	for _, m := range months {
		out.Labels = append(out.Labels, m.Month)
		out.Data = append(out.Data, m.Total.Float())
	}
	writeJSON(w, http.StatusOK, out)
}
