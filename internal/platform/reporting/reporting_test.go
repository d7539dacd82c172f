package reporting

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestFindMeasure(t *testing.T) {
	for _, id := range []string{
		"users-by-role",
		"stress-level-distribution",
		"average-stress-score",
		"assessments-per-month",
		"appointments-by-status",
		"resources-by-category",
	} {
		if FindMeasure(id) == nil {
			t.Errorf("expected measure %q to be defined", id)
		}
	}

	if FindMeasure("no-such-measure") != nil {
		t.Error("expected nil for unknown measure")
	}
}

func TestMeasureSQL_ReadOnly(t *testing.T) {
	// Measures are raw SQL executed against the primary database; make sure
	// none of them mutate anything.
	for _, m := range PredefinedMeasures {
		upper := strings.ToUpper(m.SQL)
		if !strings.HasPrefix(upper, "SELECT") {
			t.Errorf("measure %q does not start with SELECT: %s", m.ID, m.SQL)
		}
		for _, verb := range []string{"INSERT ", "UPDATE ", "DELETE ", "DROP ", "ALTER "} {
			if strings.Contains(upper, verb) {
				t.Errorf("measure %q contains mutating verb %q", m.ID, verb)
			}
		}
	}
}

func TestListMeasures(t *testing.T) {
	h := NewHandler(nil)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/reports/measures", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListMeasures(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var measures []MeasureDefinition
	if err := json.Unmarshal(rec.Body.Bytes(), &measures); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(measures) != len(PredefinedMeasures) {
		t.Errorf("expected %d measures, got %d", len(PredefinedMeasures), len(measures))
	}
}

func TestEvaluateMeasure_NotFound(t *testing.T) {
	h := NewHandler(nil)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/reports/measures/bogus/evaluate", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("bogus")

	err := h.EvaluateMeasure(c)
	if err == nil {
		t.Fatal("expected error for unknown measure")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", httpErr.Code)
	}
}
