package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/gradebook/internal/adapters/http/api"
	"github.com/okian/gradebook/internal/adapters/repository"
	service "github.com/okian/gradebook/internal/app"
	"github.com/okian/gradebook/internal/domain/grading"
	"github.com/okian/gradebook/internal/domain/model"
	"github.com/okian/gradebook/internal/domain/numlist"
	"github.com/okian/gradebook/pkg/errs"
	"github.com/okian/gradebook/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// Mock implementations for testing
type mockSession struct {
	result     grading.Result
	computeErr error
	record     model.GradeRecord
	saveErr    error
	lastInput  service.Input
}

func (m *mockSession) Compute(_ context.Context, in service.Input) (grading.Result, error) {
	m.lastInput = in
	if m.computeErr != nil {
		return grading.Result{}, m.computeErr
	}
	return m.result, nil
}

func (m *mockSession) Save(context.Context) (model.GradeRecord, error) {
	if m.saveErr != nil {
		return model.GradeRecord{}, m.saveErr
	}
	return m.record, nil
}

type mockRecords struct {
	records []model.GradeRecord
	points  []model.ChartPoint
	err     error
}

func (m *mockRecords) Records(context.Context) ([]model.GradeRecord, error) {
	return m.records, m.err
}

func (m *mockRecords) Chart(context.Context) ([]model.ChartPoint, error) {
	return m.points, m.err
}

func (m *mockRecords) ChartImage(_ context.Context, format string, w io.Writer) error {
	if m.err != nil {
		return m.err
	}
	_, err := io.WriteString(w, "<svg>"+format+"</svg>")
	return err
}

func (m *mockRecords) Export(context.Context) (*bytes.Buffer, error) {
	if m.err != nil {
		return nil, m.err
	}
	return bytes.NewBufferString("xlsx"), nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

var errDisk = errors.New("disk I/O error")

func newMux(session *mockSession, records *mockRecords) *http.ServeMux {
	server := api.NewServer(session, records, &mockStatsProvider{stats: map[string]interface{}{"saved": 1}})
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader = http.NoBody
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(&mockSession{}, &mockRecords{})

		Convey("Then the health endpoint answers", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"ok"`)
		})

		Convey("Then the stats endpoint answers", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"saved":1`)
		})

		Convey("Then the metrics endpoint answers", func() {
			w := do(mux, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "go_goroutines")
		})

		Convey("Then a nil mux panics", func() {
			server := api.NewServer(&mockSession{}, &mockRecords{}, &mockStatsProvider{})
			So(func() { server.Register(context.Background(), nil) }, ShouldPanic)
		})
	})
}

func TestComputeHandler(t *testing.T) {
	Convey("Given a compute handler", t, func() {
		session := &mockSession{
			result: grading.Result{Name: "Ali", Grades: []float64{90, 80, 75}, Mean: 81.666666666, Weighted: 81.666666666},
		}
		mux := newMux(session, &mockRecords{})

		Convey("When the form is valid", func() {
			w := do(mux, http.MethodPost, "/api/compute", `{"name":"Ali","grades":"90,80,75","weights":""}`)

			Convey("Then the averages are returned with display text", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body map[string]interface{}
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body["name"], ShouldEqual, "Ali")
				So(body["mean_text"], ShouldEqual, "81.67")
				So(body["weighted_text"], ShouldEqual, "81.67")
				So(body["weights"], ShouldBeNil)
				So(session.lastInput, ShouldResemble, service.Input{Name: "Ali", Grades: "90,80,75"})
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/api/compute", `{`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["code"], ShouldEqual, "bad_request")
		})

		Convey("When the method is wrong", func() {
			w := do(mux, http.MethodGet, "/api/compute", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When parsing fails", func() {
			session.computeErr = errs.WrapKind("numlist.parse", numlist.ErrParse, errors.New(`"a"`))
			w := do(mux, http.MethodPost, "/api/compute", `{"name":"Ali","grades":"a"}`)

			Convey("Then a parse error is reported", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				body := decodeError(w)
				So(body["code"], ShouldEqual, "parse_error")
				So(body["message"], ShouldStartWith, "invalid number format")
			})
		})

		Convey("When validation fails", func() {
			session.computeErr = errs.WrapKind("grading.compute", grading.ErrValidation, grading.ErrWeightSum)
			w := do(mux, http.MethodPost, "/api/compute", `{"name":"Ali","grades":"90,80","weights":"0.5,0.6"}`)

			Convey("Then a validation error is reported", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				body := decodeError(w)
				So(body["code"], ShouldEqual, "validation_error")
				So(body["message"], ShouldContainSubstring, "must sum to 1")
			})
		})

		Convey("When the result cannot be encoded", func() {
			session.result = grading.Result{Name: "Ali", Grades: []float64{1}, Mean: math.Inf(1), Weighted: math.Inf(1)}
			w := do(mux, http.MethodPost, "/api/compute", `{"name":"Ali","grades":"1"}`)

			Convey("Then an internal error is reported with a JSON body", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
				So(decodeError(w)["code"], ShouldEqual, "internal_error")
			})
		})
	})
}

func TestSaveHandler(t *testing.T) {
	Convey("Given a save handler", t, func() {
		session := &mockSession{
			record: model.GradeRecord{ID: 7, Name: "Ali", Grades: []float64{90, 80.5}, Mean: 85.25, Weighted: 85.25},
		}
		mux := newMux(session, &mockRecords{})

		Convey("When the save succeeds", func() {
			w := do(mux, http.MethodPost, "/api/save", "")

			Convey("Then the stored row is returned", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(w.Body.String(), ShouldContainSubstring, `"message":"record saved"`)
				So(w.Body.String(), ShouldContainSubstring, `"grades":"90,80.50"`)
				So(w.Body.String(), ShouldContainSubstring, `"id":7`)
			})
		})

		Convey("When nothing was computed", func() {
			session.saveErr = errs.WrapKind("session.save", grading.ErrValidation, service.ErrNothingToSave)
			w := do(mux, http.MethodPost, "/api/save", "")
			So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			So(decodeError(w)["message"], ShouldContainSubstring, "press compute first")
		})

		Convey("When storage fails", func() {
			session.saveErr = errs.WrapKind("repository.insert", repository.ErrStorage, errDisk)
			w := do(mux, http.MethodPost, "/api/save", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(decodeError(w)["code"], ShouldEqual, "storage_error")
		})

		Convey("When an unknown error occurs", func() {
			session.saveErr = errors.New("boom")
			w := do(mux, http.MethodPost, "/api/save", "")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(decodeError(w)["code"], ShouldEqual, "internal_error")
		})
	})
}

func TestRecordsHandlers(t *testing.T) {
	Convey("Given stored records", t, func() {
		records := &mockRecords{
			records: []model.GradeRecord{
				{ID: 2, Name: "Veli", Grades: []float64{70}, Mean: 70, Weighted: 70},
				{ID: 1, Name: "Ali", Grades: []float64{90, 80}, Mean: 85, Weighted: 85},
			},
			points: []model.ChartPoint{{Name: "Ali", Weighted: 85}, {Name: "Veli", Weighted: 70}},
		}
		mux := newMux(&mockSession{}, records)

		Convey("Then the table rows are formatted", func() {
			w := do(mux, http.MethodGet, "/api/records", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var rows []map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &rows), ShouldBeNil)
			So(len(rows), ShouldEqual, 2)
			So(rows[0]["name"], ShouldEqual, "Veli")
			So(rows[1]["mean"], ShouldEqual, "85.00")
		})

		Convey("Then the chart points keep their order", func() {
			w := do(mux, http.MethodGet, "/api/chart", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var points []model.ChartPoint
			So(json.Unmarshal(w.Body.Bytes(), &points), ShouldBeNil)
			So(points, ShouldResemble, records.points)
		})

		Convey("Then the chart image defaults to SVG", func() {
			w := do(mux, http.MethodGet, "/chart.svg", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "image/svg+xml")
			So(w.Body.String(), ShouldEqual, "<svg>svg</svg>")
		})

		Convey("Then the chart image can be PNG", func() {
			w := do(mux, http.MethodGet, "/chart.svg?format=png", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "image/png")
		})

		Convey("Then an unknown chart format is rejected", func() {
			w := do(mux, http.MethodGet, "/chart.svg?format=gif", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Then the export is an attachment", func() {
			w := do(mux, http.MethodGet, "/api/export.xlsx", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Disposition"), ShouldContainSubstring, "grades.xlsx")
			So(w.Body.String(), ShouldEqual, "xlsx")
		})

		Convey("When the store is unavailable", func() {
			records.err = errs.WrapKind("repository.fetch_desc", repository.ErrStorage, errDisk)

			for _, path := range []string{"/api/records", "/api/chart", "/chart.svg", "/api/export.xlsx"} {
				w := do(mux, http.MethodGet, path, "")
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			}
		})
	})
}

func TestRequestID(t *testing.T) {
	Convey("Given the request id middleware", t, func() {
		var seen string
		h := api.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = api.RequestIDFrom(r.Context())
		}))

		Convey("When the client sends no id", func() {
			w := do(h, http.MethodGet, "/", "")

			Convey("Then one is generated and echoed", func() {
				So(seen, ShouldNotBeEmpty)
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, seen)
			})
		})

		Convey("When the client sends a valid id", func() {
			const id = "6f1c2a4e-8a8e-4c39-9a0e-3d1f7d2b9c10"
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.Header.Set(api.RequestIDHeader, id)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then it is kept", func() {
				So(seen, ShouldEqual, id)
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, id)
			})
		})

		Convey("When the client sends garbage", func() {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.Header.Set(api.RequestIDHeader, "not-an-id")
			h.ServeHTTP(httptest.NewRecorder(), req)
			So(seen, ShouldNotEqual, "not-an-id")
		})
	})
}

func TestEndToEnd(t *testing.T) {
	Convey("Given the API over a real store", t, func() {
		store, err := repository.Open(context.Background(), filepath.Join(t.TempDir(), "grades.db"))
		So(err, ShouldBeNil)
		svc := service.New(store)
		defer svc.Close()

		server := api.NewServer(service.NewSession(svc), svc, svc)
		mux := http.NewServeMux()
		server.Register(context.Background(), mux)

		Convey("When saving before computing", func() {
			w := do(mux, http.MethodPost, "/api/save", "")
			So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
		})

		Convey("When grades overflow the average", func() {
			w := do(mux, http.MethodPost, "/api/compute", `{"name":"Ali","grades":"1e308, 1e308"}`)

			Convey("Then compute reports a validation error", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				body := decodeError(w)
				So(body["code"], ShouldEqual, "validation_error")
				So(body["message"], ShouldContainSubstring, "average out of range")
			})

			Convey("Then a following save still asks for a compute", func() {
				w := do(mux, http.MethodPost, "/api/save", "")
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(decodeError(w)["message"], ShouldContainSubstring, "press compute first")

				w = do(mux, http.MethodGet, "/api/records", "")
				So(w.Body.String(), ShouldNotContainSubstring, "Ali")
			})
		})

		Convey("When computing then saving", func() {
			w := do(mux, http.MethodPost, "/api/compute", `{"name":"Ali","grades":"90, 80","weights":"0.5, 0.5"}`)
			So(w.Code, ShouldEqual, http.StatusOK)

			w = do(mux, http.MethodPost, "/api/save", "")
			So(w.Code, ShouldEqual, http.StatusCreated)

			Convey("Then the table shows the record", func() {
				w := do(mux, http.MethodGet, "/api/records", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"weighted":"85.00"`)
			})

			Convey("Then the chart plots it", func() {
				w := do(mux, http.MethodGet, "/chart.svg", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "Ali")
			})
		})
	})
}
