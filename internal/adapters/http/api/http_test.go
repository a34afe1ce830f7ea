package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/brevet/internal/adapters/http/api"
	service "github.com/okian/brevet/internal/app"
	"github.com/okian/brevet/internal/domain/types"
	"github.com/okian/brevet/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type errorBody struct {
	Code    string               `json:"code"`
	Message string               `json:"message"`
	Skipped []types.SkippedEntry `json:"skipped"`
}

type failingAnalyzer struct{}

// infiniteAnalyzer returns a report that JSON cannot encode.
type infiniteAnalyzer struct{}

func (infiniteAnalyzer) Analyze(context.Context, types.AnalysisRequest) (types.Report, error) {
	return types.Report{BrevetStats: &types.BrevetEntry{MoyennePoints: math.Inf(1)}}, nil
}

func (failingAnalyzer) Analyze(context.Context, types.AnalysisRequest) (types.Report, error) {
	return types.Report{}, errors.New("disk on fire")
}

func newMux(opts ...api.Option) *http.ServeMux {
	svc := service.New(service.WithLogger(logger.Nop()), service.WithMaxEvaluations(3))
	mux := http.NewServeMux()
	api.NewServer(svc, svc, opts...).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) errorBody {
	var body errorBody
	So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
	return body
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux()

		Convey("When calling /healthz", func() {
			w := do(mux, http.MethodGet, "/healthz", "")

			Convey("Then it reports ok as JSON", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
				So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
			})
		})

		Convey("When calling /metrics after a request", func() {
			do(mux, http.MethodGet, "/healthz", "")
			w := do(mux, http.MethodGet, "/metrics", "")

			Convey("Then Prometheus metrics are exposed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "brevet_analyzer_http_requests_total")
			})
		})

		Convey("When calling /stats", func() {
			w := do(mux, http.MethodGet, "/stats", "")

			Convey("Then service counters are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var stats map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
				So(stats, ShouldContainKey, "analyses")
				So(stats["policy"], ShouldEqual, "skip")
			})
		})

		Convey("When using the wrong method", func() {
			w := do(mux, http.MethodGet, "/analyze", "")

			Convey("Then 405 is returned with an Allow header", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(w.Header().Get("Allow"), ShouldEqual, http.MethodPost)
				So(decodeError(w).Code, ShouldEqual, "method_not_allowed")
			})
		})
	})
}

func TestAnalyzeHandler(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(api.WithMaxBodyBytes(512))

		Convey("When posting valid evaluations", func() {
			w := do(mux, http.MethodPost, "/analyze?notation=colors",
				`{"evaluations":[{"subject":"Maths","grade":"A+","coefficient":2},{"subject":"Maths","grade":"C"}]}`,
				"Accept-Language", "en-GB,en;q=0.8")

			Convey("Then the report is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var report types.Report
				So(json.Unmarshal(w.Body.Bytes(), &report), ShouldBeNil)
				So(report.AnalysisID, ShouldNotBeEmpty)
				So(report.Language, ShouldEqual, "en")
				So(report.Notation, ShouldEqual, "colors")
				So(report.Evaluations[0].Grade, ShouldEqual, "V+")
				So(report.Evaluations[1].Coefficient, ShouldEqual, 1)
				So(report.SubjectAverages["Maths"].Average, ShouldEqual, 125.0/3.0)
				So(report.BrevetStats, ShouldNotBeNil)
				So(report.TotalEvaluations, ShouldEqual, 2)
			})
		})

		Convey("When the lang query parameter is set", func() {
			w := do(mux, http.MethodPost, "/analyze?lang=es",
				`{"evaluations":[{"subject":"Maths","grade":"E"}]}`, "Accept-Language", "en")

			Convey("Then it wins over Accept-Language", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"language":"es"`)
			})
		})

		Convey("When the body is malformed", func() {
			w := do(mux, http.MethodPost, "/analyze", `{"evaluations":[`)

			Convey("Then 400 bad_request is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w).Code, ShouldEqual, "bad_request")
			})
		})

		Convey("When the body exceeds the limit", func() {
			w := do(mux, http.MethodPost, "/analyze", `{"evaluations":[{"subject":"`+strings.Repeat("x", 1024)+`","grade":"A"}]}`)

			Convey("Then 413 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
				So(decodeError(w).Code, ShouldEqual, "payload_too_large")
			})
		})

		Convey("When too many evaluations are posted", func() {
			w := do(mux, http.MethodPost, "/analyze",
				`{"evaluations":[{"subject":"A","grade":"A"},{"subject":"A","grade":"A"},{"subject":"A","grade":"A"},{"subject":"A","grade":"A"}]}`)

			Convey("Then 400 too_many_evaluations is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w).Code, ShouldEqual, "too_many_evaluations")
			})
		})

		Convey("When the policy is unknown", func() {
			w := do(mux, http.MethodPost, "/analyze?policy=maybe", `{"evaluations":[{"subject":"A","grade":"A"}]}`)

			Convey("Then 400 bad_request is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w).Code, ShouldEqual, "bad_request")
			})
		})

		Convey("When a grade is invalid under the abort policy", func() {
			w := do(mux, http.MethodPost, "/analyze?policy=abort",
				`{"evaluations":[{"subject":"Maths","grade":"A"},{"subject":"Maths","grade":"Z"}]}`)

			Convey("Then 422 invalid_grade is returned", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				body := decodeError(w)
				So(body.Code, ShouldEqual, "invalid_grade")
				So(body.Message, ShouldContainSubstring, `"Z"`)
			})
		})

		Convey("When a coefficient is invalid under the abort policy", func() {
			w := do(mux, http.MethodPost, "/analyze?policy=abort",
				`{"evaluations":[{"subject":"Maths","grade":"A","coefficient":-1}]}`)

			Convey("Then 422 invalid_coefficient is returned", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(decodeError(w).Code, ShouldEqual, "invalid_coefficient")
			})
		})

		Convey("When no evaluation is valid", func() {
			w := do(mux, http.MethodPost, "/analyze", `{"evaluations":[{"subject":"Maths","grade":"Z"}]}`)

			Convey("Then 422 insufficient_data lists the skipped records", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				body := decodeError(w)
				So(body.Code, ShouldEqual, "insufficient_data")
				So(len(body.Skipped), ShouldEqual, 1)
				So(body.Skipped[0].Reason, ShouldEqual, "invalid_grade")
			})
		})

		Convey("When a coefficient would overflow the weighted totals", func() {
			w := do(mux, http.MethodPost, "/analyze",
				`{"evaluations":[{"subject":"Maths","grade":"A+","coefficient":1e308},{"subject":"SVT","grade":"C"}]}`)

			Convey("Then the record is skipped and the report is complete", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var report types.Report
				So(json.Unmarshal(w.Body.Bytes(), &report), ShouldBeNil)
				So(len(report.Skipped), ShouldEqual, 1)
				So(report.Skipped[0].Reason, ShouldEqual, "invalid_coefficient")
				So(report.BrevetStats.MoyennePoints, ShouldEqual, 25)
			})
		})

		Convey("When the evaluations list is empty", func() {
			w := do(mux, http.MethodPost, "/analyze", `{"evaluations":[]}`)

			Convey("Then 422 insufficient_data is returned", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(decodeError(w).Code, ShouldEqual, "insufficient_data")
			})
		})
	})

	Convey("Given an analyzer that fails unexpectedly", t, func() {
		mux := http.NewServeMux()
		svc := service.New(service.WithLogger(logger.Nop()))
		api.NewServer(failingAnalyzer{}, svc).Register(context.Background(), mux)

		Convey("When posting evaluations", func() {
			w := do(mux, http.MethodPost, "/analyze", `{"evaluations":[{"subject":"A","grade":"A"}]}`)

			Convey("Then 500 internal_error is returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decodeError(w).Code, ShouldEqual, "internal_error")
			})
		})
	})

	Convey("Given an analyzer whose report cannot be encoded", t, func() {
		mux := http.NewServeMux()
		svc := service.New(service.WithLogger(logger.Nop()))
		api.NewServer(infiniteAnalyzer{}, svc).Register(context.Background(), mux)

		Convey("When posting evaluations", func() {
			w := do(mux, http.MethodPost, "/analyze", `{"evaluations":[{"subject":"A","grade":"A"}]}`)

			Convey("Then 500 internal_error is returned with a body", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decodeError(w).Code, ShouldEqual, "internal_error")
			})
		})
	})
}

func TestWrapKind(t *testing.T) {
	Convey("Given an operation error", t, func() {
		cause := errors.New("unexpected EOF")
		err := api.WrapKind("api.analyze", api.ErrBadRequest, cause)

		Convey("Then both kind and cause match", func() {
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.analyze: bad request: unexpected EOF")
		})

		Convey("Then a nil cause yields the bare kind", func() {
			err := api.WrapKind("api.stats", api.ErrInternal, nil)
			So(errors.Is(err, api.ErrInternal), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.stats: internal error")
		})
	})
}
