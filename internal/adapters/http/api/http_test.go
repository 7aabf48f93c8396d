package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/wastewise/internal/adapters/http/api"
	"github.com/okian/wastewise/internal/adapters/repository"
	"github.com/okian/wastewise/internal/adapters/storage"
	"github.com/okian/wastewise/internal/aggregate"
	"github.com/okian/wastewise/internal/domain/dedupe"
	"github.com/okian/wastewise/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeDeps serves the real store through a local repository and lets tests
// force failures.
type fakeDeps struct {
	dedupe.Deduper
	*repository.Local

	submitErr error
	resetErr  error
	submitted []model.Submission
}

func newFakeDeps(t *testing.T) *fakeDeps {
	t.Helper()
	store := aggregate.New(storage.NewMemory())
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return &fakeDeps{
		Deduper: dedupe.NewInMemoryDeduper(),
		Local:   repository.NewLocal(store),
	}
}

func (f *fakeDeps) Submit(ctx context.Context, sub model.Submission) (model.WasteLogEntry, error) {
	f.submitted = append(f.submitted, sub)
	if f.submitErr != nil {
		if errors.Is(f.submitErr, aggregate.ErrStorage) {
			return model.WasteLogEntry{LogID: 99}, f.submitErr
		}
		return model.WasteLogEntry{}, f.submitErr
	}
	return f.Local.Submit(ctx, sub)
}

func (f *fakeDeps) Reset(ctx context.Context) error {
	if f.resetErr != nil {
		return f.resetErr
	}
	return f.Local.Reset(ctx)
}

type fakeStats map[string]any

func (s fakeStats) GetStats() map[string]any { return s }

func newMux(deps api.Dependencies, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, fakeStats{"service": "wastewise"}, opts...).Register(mux)
	return mux
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Code   string          `json:"code"`
}

func do(h http.Handler, method, target string, body string, header map[string]string) (*httptest.ResponseRecorder, envelope) {
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, rd)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestReadRoutes(t *testing.T) {
	Convey("Given the API over the seed views", t, func() {
		deps := newFakeDeps(t)
		mux := newMux(deps)

		Convey("When the leaderboard is requested", func() {
			rec, env := do(mux, http.MethodGet, "/api/employee/leaderboard", "", nil)
			var rows []model.LeaderboardRow
			So(json.Unmarshal(env.Data, &rows), ShouldBeNil)

			Convey("Then rows should come back in rank order", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(env.Status, ShouldEqual, "success")
				So(rows, ShouldHaveLength, 10)
				for i, r := range rows {
					So(r.Rank, ShouldEqual, i+1)
				}
			})
		})

		Convey("When a single business row is requested", func() {
			rec, env := do(mux, http.MethodGet, "/api/employee/leaderboard/24", "", nil)
			var row model.LeaderboardRow
			So(json.Unmarshal(env.Data, &row), ShouldBeNil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(row.BusinessID, ShouldEqual, 24)

			rec, env = do(mux, http.MethodGet, "/api/employee/leaderboard/9999", "", nil)
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(env.Code, ShouldEqual, "not_found")

			rec, env = do(mux, http.MethodGet, "/api/employee/leaderboard/abc", "", nil)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(env.Code, ShouldEqual, "bad_request")
		})

		Convey("When metrics and waste types are requested", func() {
			rec, env := do(mux, http.MethodGet, "/api/dashboard/metrics", "", nil)
			var m model.MetricsSnapshot
			So(json.Unmarshal(env.Data, &m), ShouldBeNil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(m.TotalWaste, ShouldEqual, 35.4)

			rec, env = do(mux, http.MethodGet, "/api/dashboard/waste-types", "", nil)
			var shares []model.WasteTypeShare
			So(json.Unmarshal(env.Data, &shares), ShouldBeNil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(shares, ShouldHaveLength, 5)
		})

		Convey("When the waste chart is requested", func() {
			Convey("Then the default timeframe should be month", func() {
				_, def := do(mux, http.MethodGet, "/api/dashboard/waste-chart", "", nil)
				_, month := do(mux, http.MethodGet, "/api/dashboard/waste-chart?timeframe=month", "", nil)
				So(string(def.Data), ShouldEqual, string(month.Data))
			})

			Convey("Then quarter should have three buckets", func() {
				_, env := do(mux, http.MethodGet, "/api/dashboard/waste-chart?timeframe=Quarter", "", nil)
				var buckets []model.ChartBucket
				So(json.Unmarshal(env.Data, &buckets), ShouldBeNil)
				So(buckets, ShouldHaveLength, 3)
			})

			Convey("Then an unknown timeframe should be rejected", func() {
				rec, env := do(mux, http.MethodGet, "/api/dashboard/waste-chart?timeframe=week", "", nil)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(env.Code, ShouldEqual, "invalid_timeframe")
			})
		})

		Convey("When history is filtered by the User-ID header", func() {
			_, env := do(mux, http.MethodGet, "/api/employee/history", "", map[string]string{"User-ID": "57"})
			var entries []model.WasteLogEntry
			So(json.Unmarshal(env.Data, &entries), ShouldBeNil)
			So(entries, ShouldHaveLength, 4)
			for _, e := range entries {
				So(e.UserID, ShouldEqual, 57)
			}

			rec, _ := do(mux, http.MethodGet, "/api/employee/history", "", map[string]string{"User-ID": "x"})
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the employee table is filtered by business", func() {
			_, env := do(mux, http.MethodGet, "/api/admin/employee-table?businessID=1", "", nil)
			var entries []model.WasteLogEntry
			So(json.Unmarshal(env.Data, &entries), ShouldBeNil)
			So(entries, ShouldHaveLength, 4)

			_, env = do(mux, http.MethodGet, "/api/admin/employee-table", "", nil)
			So(json.Unmarshal(env.Data, &entries), ShouldBeNil)
			So(entries, ShouldHaveLength, 9)

			rec, _ := do(mux, http.MethodGet, "/api/admin/employee-table?businessID=-3", "", nil)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When health and stats are requested", func() {
			rec, _ := do(mux, http.MethodGet, "/healthz", "", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "wastewise_")

			rec, _ = do(mux, http.MethodGet, "/stats", "", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"service":"wastewise"`)
		})
	})
}

func TestSubmitRoute(t *testing.T) {
	const path = "/api/employee/submit-waste"

	Convey("Given the API over the seed views", t, func() {
		deps := newFakeDeps(t)
		mux := newMux(deps)

		Convey("When a valid submission is posted", func() {
			rec, env := do(mux, http.MethodPost, path,
				`{"businessID":24,"wasteType":"Paper","weight":2}`,
				map[string]string{"User-ID": "57"})
			var entry model.WasteLogEntry
			So(json.Unmarshal(env.Data, &entry), ShouldBeNil)

			Convey("Then the created entry should be returned", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)
				So(entry.LogID, ShouldEqual, 10)
				So(entry.UserID, ShouldEqual, 57)
			})

			Convey("Then the views should reflect it", func() {
				_, env := do(mux, http.MethodGet, "/api/employee/history", "", nil)
				var entries []model.WasteLogEntry
				So(json.Unmarshal(env.Data, &entries), ShouldBeNil)
				So(entries[0].LogID, ShouldEqual, 10)
			})
		})

		Convey("When the body userID is set the header should not override it", func() {
			do(mux, http.MethodPost, path, `{"businessID":1,"userID":5,"weight":1}`, map[string]string{"User-ID": "57"})
			So(deps.submitted[0].UserID, ShouldEqual, 5)
		})

		Convey("When the same Idempotency-Key is sent twice", func() {
			hdr := map[string]string{"Idempotency-Key": "k-1"}
			first, _ := do(mux, http.MethodPost, path, `{"businessID":1,"weight":1}`, hdr)
			second, env := do(mux, http.MethodPost, path, `{"businessID":1,"weight":1}`, hdr)

			Convey("Then the second should be reported as a duplicate", func() {
				So(first.Code, ShouldEqual, http.StatusCreated)
				So(second.Code, ShouldEqual, http.StatusOK)
				So(env.Status, ShouldEqual, "duplicate")
				So(string(env.Data), ShouldEqual, "null")
				So(deps.submitted, ShouldHaveLength, 1)
			})
		})

		Convey("When the submission fails validation", func() {
			hdr := map[string]string{"Idempotency-Key": "k-2"}
			rec, env := do(mux, http.MethodPost, path, `{"businessID":1,"weight":-1}`, hdr)

			Convey("Then it should be rejected and the key released", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(env.Code, ShouldEqual, "validation_error")

				rec, _ = do(mux, http.MethodPost, path, `{"businessID":1,"weight":1}`, hdr)
				So(rec.Code, ShouldEqual, http.StatusCreated)
			})
		})

		Convey("When the body is malformed", func() {
			rec, env := do(mux, http.MethodPost, path, `{"weight":`, nil)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(env.Code, ShouldEqual, "bad_request")
		})

		Convey("When persistence fails", func() {
			deps.submitErr = &aggregate.StorageError{Op: "set", Err: errors.New("disk full")}
			hdr := map[string]string{"Idempotency-Key": "k-3"}
			rec, env := do(mux, http.MethodPost, path, `{"businessID":1,"weight":1}`, hdr)

			Convey("Then a storage error should be reported and the key kept", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
				So(env.Code, ShouldEqual, "storage_error")
				So(deps.SeenAndRecord(context.Background(), "k-3"), ShouldBeTrue)
			})
		})

		Convey("When the remote backend already applied the submission", func() {
			deps.submitErr = fmt.Errorf("submit: %w", repository.ErrDuplicate)
			hdr := map[string]string{"Idempotency-Key": "k-4"}
			rec, env := do(mux, http.MethodPost, path, `{"businessID":1,"weight":1}`, hdr)

			Convey("Then it should be reported as a duplicate and the key kept", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(env.Status, ShouldEqual, "duplicate")
				So(deps.SeenAndRecord(context.Background(), "k-4"), ShouldBeTrue)
			})
		})

		Convey("When the remote backend fails", func() {
			deps.submitErr = repository.ErrRemote
			rec, env := do(mux, http.MethodPost, path, `{"businessID":1,"weight":1}`, nil)
			So(rec.Code, ShouldEqual, http.StatusBadGateway)
			So(env.Code, ShouldEqual, "backend_error")
		})
	})

	Convey("Given a write rate limit of one request", t, func() {
		mux := newMux(newFakeDeps(t), api.WithWriteRateLimit(0.001, 1))

		Convey("Then the second write should be throttled but reads should not", func() {
			first, _ := do(mux, http.MethodPost, path, `{"businessID":1,"weight":1}`, nil)
			second, env := do(mux, http.MethodPost, path, `{"businessID":1,"weight":1}`, nil)
			read, _ := do(mux, http.MethodGet, "/api/employee/leaderboard", "", nil)
			So(first.Code, ShouldEqual, http.StatusCreated)
			So(second.Code, ShouldEqual, http.StatusTooManyRequests)
			So(env.Code, ShouldEqual, "rate_limited")
			So(read.Code, ShouldEqual, http.StatusOK)
		})
	})
}

func TestResetRoute(t *testing.T) {
	Convey("Given the API after a submission", t, func() {
		deps := newFakeDeps(t)
		mux := newMux(deps)
		do(mux, http.MethodPost, "/api/employee/submit-waste", `{"businessID":24,"weight":3}`, nil)

		Convey("When reset is posted", func() {
			rec, _ := do(mux, http.MethodPost, "/api/admin/reset", "", nil)
			_, env := do(mux, http.MethodGet, "/api/employee/history", "", nil)
			var entries []model.WasteLogEntry
			So(json.Unmarshal(env.Data, &entries), ShouldBeNil)

			Convey("Then the seed views should be back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(entries, ShouldHaveLength, 9)
			})
		})

		Convey("When the repository cannot reset", func() {
			deps.resetErr = repository.ErrResetUnsupported
			rec, env := do(mux, http.MethodPost, "/api/admin/reset", "", nil)
			So(rec.Code, ShouldEqual, http.StatusNotImplemented)
			So(env.Code, ShouldEqual, "not_implemented")
		})

		Convey("When reset is requested with GET", func() {
			rec, _ := do(mux, http.MethodGet, "/api/admin/reset", "", nil)
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestCORSMiddleware(t *testing.T) {
	Convey("Given a CORS wrapped mux", t, func() {
		h := api.CORSMiddleware([]string{"https://dash.example.com"})(newMux(newFakeDeps(t)))

		Convey("When an allowed origin sends a preflight", func() {
			rec, _ := do(h, http.MethodOptions, "/api/employee/submit-waste", "", map[string]string{"Origin": "https://dash.example.com"})
			So(rec.Code, ShouldEqual, http.StatusNoContent)
			So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "https://dash.example.com")
			So(rec.Header().Get("Access-Control-Allow-Headers"), ShouldContainSubstring, "Idempotency-Key")
		})

		Convey("When another origin reads", func() {
			rec, _ := do(h, http.MethodGet, "/api/dashboard/metrics", "", map[string]string{"Origin": "https://evil.example.com"})
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldBeEmpty)
		})
	})

	Convey("Given a wildcard origin", t, func() {
		h := api.CORSMiddleware([]string{"*"})(newMux(newFakeDeps(t)))
		rec, _ := do(h, http.MethodGet, "/api/dashboard/metrics", "", map[string]string{"Origin": "http://localhost:5173"})
		So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "http://localhost:5173")
	})
}
