package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/pkg/metrics"
)

// errorCount sums errors_by_endpoint_total samples for an endpoint and kind.
func errorCount(endpoint, kind string) float64 {
	families, err := metrics.GetRegistry().Gather()
	So(err, ShouldBeNil)
	total := 0.0
	for _, f := range families {
		if !strings.HasSuffix(f.GetName(), "errors_by_endpoint_total") {
			continue
		}
		for _, m := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["endpoint"] == endpoint && labels["error_type"] == kind {
				total += m.GetCounter().GetValue()
			}
		}
	}
	return total
}

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a handler that fails with a service error", t, func() {
		h := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			writeServiceError(w, model.ErrDataUnavailable)
		}, "mw_upstream")
		before := errorCount("mw_upstream", "data_unavailable")

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/x", nil))

		Convey("Then the error is recorded under its API code", func() {
			So(w.Code, ShouldEqual, http.StatusBadGateway)
			So(errorCount("mw_upstream", "data_unavailable"), ShouldEqual, before+1)
		})
	})

	Convey("Given a handler that writes a bare status", t, func() {
		h := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusMethodNotAllowed)
		}, "mw_bare")
		before := errorCount("mw_bare", "http_405")

		h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

		Convey("Then the status stands in for the code", func() {
			So(errorCount("mw_bare", "http_405"), ShouldEqual, before+1)
		})
	})

	Convey("Given a successful handler", t, func() {
		rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
		writeJSON(rec, http.StatusOK, map[string]string{"status": "ok"})

		Convey("Then no error code is captured", func() {
			So(rec.status, ShouldEqual, http.StatusOK)
			So(rec.code, ShouldBeEmpty)
		})
	})

	Convey("Given failure statuses", t, func() {
		So(severity(http.StatusBadGateway), ShouldEqual, "high")
		So(severity(http.StatusNotFound), ShouldEqual, "medium")
	})
}
