package reddit

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const clientListing = `{"kind":"Listing","data":{"after":"","before":"","children":[
	{"kind":"t3","data":{"id":"a1","name":"t3_a1","title":"First","created_utc":1700000000,"permalink":"/r/golang/comments/a1/first/","subreddit":"golang"}},
	{"kind":"t3","data":{"id":"b2","name":"t3_b2","title":"","created_utc":1700000100,"permalink":"/r/golang/comments/b2/second/","subreddit":"golang"}}
]}}`

// serveClient answers every request with status and body and records the request paths.
func serveClient(t *testing.T, status int, body string) (*ClientFetcher, *[]string) {
	t.Helper()
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return NewClientFetcher(nil, 2*time.Second, "subwatch-test", server.URL), &paths
}

func TestClientFetcher_Fetch(t *testing.T) {
	fetcher, _ := serveClient(t, http.StatusOK, clientListing)

	snapshot, err := fetcher.Fetch(context.Background(), "https://www.reddit.com/r/golang/hot/.json")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(snapshot) != 2 {
		t.Fatalf("entries = %d, want 2", len(snapshot))
	}
	first := snapshot[0]
	if first.ID != "a1" || first.Title != "First" {
		t.Fatalf("first entry = %+v", first)
	}
	if first.URL != "https://www.reddit.com/r/golang/comments/a1/first/" {
		t.Fatalf("url = %q", first.URL)
	}
	if first.CreatedErr != nil || !first.CreatedAt.Equal(time.Unix(1700000000, 0)) {
		t.Fatalf("created at = %v (%v)", first.CreatedAt, first.CreatedErr)
	}
	if snapshot[1].Title != "(untitled)" {
		t.Fatalf("missing title = %q, want placeholder", snapshot[1].Title)
	}
}

func TestClientFetcher_Fetch_Sorts(t *testing.T) {
	for _, sort := range Sorts {
		sort := sort
		t.Run(sort, func(t *testing.T) {
			fetcher, paths := serveClient(t, http.StatusOK, clientListing)
			listing := Listing{Subreddit: "golang", Sort: sort}

			if _, err := fetcher.Fetch(context.Background(), listing.URL("www.reddit.com", FormatJSON)); err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if len(*paths) != 1 {
				t.Fatalf("requests = %v, want 1", *paths)
			}
			if got := (*paths)[0]; !strings.Contains(got, "/r/golang/"+sort) {
				t.Fatalf("path = %q, want /r/golang/%s", got, sort)
			}
		})
	}
}

func TestClientFetcher_Fetch_StatusReason(t *testing.T) {
	fetcher, _ := serveClient(t, http.StatusForbidden, `{"reason":"private","message":"Forbidden","error":403}`)

	_, err := fetcher.Fetch(context.Background(), "https://www.reddit.com/r/golang/hot/.json")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error %T is not a *FetchError: %v", err, err)
	}
	if fe.Kind != KindHTTP || fe.StatusCode != http.StatusForbidden {
		t.Fatalf("error = %+v", fe)
	}
	if err.Error() != "HTTP Error 403 - private" {
		t.Fatalf("error string = %q", err.Error())
	}
}

func TestClientFetcher_Fetch_StatusWithoutReason(t *testing.T) {
	fetcher, _ := serveClient(t, http.StatusNotFound, `{"message":"Not Found","error":404}`)

	_, err := fetcher.Fetch(context.Background(), "https://www.reddit.com/r/golang/new/.json")
	if err == nil || err.Error() != "HTTP Error 404 - Unknown reason" {
		t.Fatalf("Fetch() error = %v", err)
	}
}

func TestClientFetcher_Fetch_MissingFields(t *testing.T) {
	cases := map[string]string{
		"created_utc": `{"kind":"t3","data":{"id":"a1","title":"x","permalink":"/r/golang/comments/a1/x/"}}`,
		"id":          `{"kind":"t3","data":{"title":"x","created_utc":1700000000,"permalink":"/r/golang/comments/a1/x/"}}`,
		"permalink":   `{"kind":"t3","data":{"id":"a1","title":"x","created_utc":1700000000}}`,
	}
	for missing, child := range cases {
		missing, child := missing, child
		t.Run(missing, func(t *testing.T) {
			body := `{"kind":"Listing","data":{"children":[` + child + `]}}`
			fetcher, _ := serveClient(t, http.StatusOK, body)

			snapshot, err := fetcher.Fetch(context.Background(), "https://www.reddit.com/r/golang/hot/.json")
			var fe *FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("Fetch() = %+v, %v; want malformed error", snapshot, err)
			}
			if fe.Kind != KindMalformed || fe.Error() != "JSON structure does not match expected type" {
				t.Fatalf("error = %+v", fe)
			}
		})
	}
}

func TestClientFetcher_Fetch_EmptyListing(t *testing.T) {
	fetcher, _ := serveClient(t, http.StatusOK, `{"kind":"Listing","data":{"children":[]}}`)

	snapshot, err := fetcher.Fetch(context.Background(), "https://www.reddit.com/r/golang/hot/.json")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(snapshot) != 0 {
		t.Fatalf("entries = %d, want 0", len(snapshot))
	}
}

func TestClientFetcher_Fetch_BadListingURL(t *testing.T) {
	fetcher, paths := serveClient(t, http.StatusOK, clientListing)

	_, err := fetcher.Fetch(context.Background(), "https://www.reddit.com/user/someone/.json")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error %T is not a *FetchError: %v", err, err)
	}
	if len(*paths) != 0 {
		t.Fatalf("requests = %v, want none", *paths)
	}
}

func TestErrorBodyTransportLeavesSuccessUntouched(t *testing.T) {
	var captured []byte
	transport := errorBodyTransport{base: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("ok")), Request: r}, nil
	})}
	ctx := context.WithValue(context.Background(), errorBodyKey{}, &captured)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "https://www.reddit.com/r/golang/hot.json", nil)

	resp, err := transport.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip() error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok" || captured != nil {
		t.Fatalf("body = %q, captured = %q", body, captured)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
