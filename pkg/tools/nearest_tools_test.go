package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/osmtools/nearway/pkg/osm"
)

func TestMain(m *testing.M) {
	// The 1 rps production limit would slow the suite down.
	osm.UpdateAPIRateLimits(1000, 1000)
	os.Exit(m.Run())
}

// networkXML is a map response with two ways: way 2001 passes right by the
// query position, way 2002 is a street further north.
const networkXML = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="openstreetmap-cgimap">
  <node id="101" lat="63.3998100" lon="10.2907200"/>
  <node id="102" lat="63.4026500" lon="10.2942600"/>
  <node id="103" lat="63.4050000" lon="10.2990000"/>
  <node id="104" lat="63.4080000" lon="10.3030000"/>
  <way id="2001">
    <nd ref="101"/>
    <nd ref="102"/>
    <tag k="highway" v="residential"/>
    <tag k="name" v="Nordre gate"/>
  </way>
  <way id="2002">
    <nd ref="103"/>
    <nd ref="104"/>
    <tag k="highway" v="footway"/>
  </way>
</osm>`

// newTestClient points the shared map client at a stub OSM API and returns
// the number of map requests served.
func newTestClient(t *testing.T, body string) *atomic.Int32 {
	t.Helper()

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	SetMapClient(osm.NewClient(osm.WithBaseURL(srv.URL)))
	t.Cleanup(func() { SetMapClient(osm.NewClient()) })

	return &requests
}

func trondheimArgs(extra map[string]any) map[string]any {
	args := map[string]any{
		"bbox": map[string]any{
			"minLat": 63.39981, "minLon": 10.29072,
			"maxLat": 63.40265, "maxLon": 10.29426,
		},
	}
	for k, v := range extra {
		args[k] = v
	}
	return args
}

func TestHandleFetchMap(t *testing.T) {
	newTestClient(t, networkXML)

	req := newRequest("fetch_map", trondheimArgs(nil))
	result, err := HandleFetchMap(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleFetchMap() error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, result))
	}

	out := decodeResult[FetchMapOutput](t, result)
	if out.Nodes != 4 || out.Ways != 2 {
		t.Errorf("summary = %+v, want 4 nodes and 2 ways", out)
	}
}

func TestHandleFetchMapInvalidBBox(t *testing.T) {
	newTestClient(t, networkXML)

	tests := []struct {
		name string
		bbox map[string]any
	}{
		{
			name: "min greater than max",
			bbox: map[string]any{"minLat": 63.41, "minLon": 10.3, "maxLat": 63.40, "maxLon": 10.29},
		},
		{
			name: "latitude out of range",
			bbox: map[string]any{"minLat": -95.0, "minLon": 10.29, "maxLat": 63.40, "maxLon": 10.30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest("fetch_map", map[string]any{"bbox": tt.bbox})
			result, err := HandleFetchMap(context.Background(), req)
			if err != nil {
				t.Fatalf("HandleFetchMap() error: %v", err)
			}
			if !result.IsError {
				t.Error("expected an error result for invalid bounding box")
			}
		})
	}
}

func TestHandleNearestWay(t *testing.T) {
	newTestClient(t, networkXML)

	req := newRequest("nearest_way", trondheimArgs(map[string]any{
		"latitude":  63.4015,
		"longitude": 10.2935,
	}))

	result, err := HandleNearestWay(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleNearestWay() error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, result))
	}

	out := decodeResult[NearestWayOutput](t, result)
	if out.Way.ID != 2001 {
		t.Errorf("nearest way = %d, want 2001", out.Way.ID)
	}
	if out.Distance <= 0 || out.Distance > 100 {
		t.Errorf("distance = %f, want a small positive value", out.Distance)
	}

	// Tags render as "key = value" lines.
	found := false
	for _, tag := range out.Way.Tags {
		if tag == "name = Nordre gate" {
			found = true
		}
	}
	if !found {
		t.Errorf("tags = %v, want rendered name tag", out.Way.Tags)
	}

	if out.Way.DistanceText == "" || !strings.HasPrefix(out.Way.DistanceText, "Distance = ") {
		t.Errorf("distance text = %q, want 'Distance = ...'", out.Way.DistanceText)
	}
	if out.Way.Polyline == "" {
		t.Error("way polyline should be populated")
	}

	// The projected point lies inside the query bounding box.
	if out.Point.Latitude < 63.39981 || out.Point.Latitude > 63.40265 {
		t.Errorf("projected point %v outside way extent", out.Point)
	}
}

func TestHandleNearestWayPositionString(t *testing.T) {
	newTestClient(t, networkXML)

	req := newRequest("nearest_way", trondheimArgs(map[string]any{
		"position": "63.4015, 10.2935",
	}))

	result, err := HandleNearestWay(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleNearestWay() error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, result))
	}

	out := decodeResult[NearestWayOutput](t, result)
	if out.Way.ID != 2001 {
		t.Errorf("nearest way = %d, want 2001", out.Way.ID)
	}
}

func TestHandleNearestWayNoPosition(t *testing.T) {
	newTestClient(t, networkXML)

	req := newRequest("nearest_way", trondheimArgs(nil))
	result, err := HandleNearestWay(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleNearestWay() error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected an error result without a position")
	}
	if text := resultText(t, result); !strings.Contains(text, "NO_POSITION") {
		t.Errorf("error payload = %q, want NO_POSITION code", text)
	}
}

func TestHandleNearestWayNoWays(t *testing.T) {
	newTestClient(t, `<osm><node id="1" lat="63.4" lon="10.3"/></osm>`)

	req := newRequest("nearest_way", map[string]any{
		"bbox": map[string]any{
			"minLat": 63.30, "minLon": 10.20,
			"maxLat": 63.31, "maxLon": 10.21,
		},
		"latitude":  63.305,
		"longitude": 10.205,
	})

	result, err := HandleNearestWay(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleNearestWay() error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected an error result for a document without ways")
	}
	if text := resultText(t, result); !strings.Contains(text, "NO_WAYS") {
		t.Errorf("error payload = %q, want NO_WAYS code", text)
	}
}

func TestHandleNearestWayResultCache(t *testing.T) {
	requests := newTestClient(t, networkXML)

	// A bbox distinct from other tests so neither cache can be warm.
	args := map[string]any{
		"bbox": map[string]any{
			"minLat": 63.50, "minLon": 10.40,
			"maxLat": 63.51, "maxLon": 10.41,
		},
		"latitude":  63.505,
		"longitude": 10.405,
	}

	for i := 0; i < 2; i++ {
		result, err := HandleNearestWay(context.Background(), newRequest("nearest_way", args))
		if err != nil {
			t.Fatalf("HandleNearestWay() call %d error: %v", i+1, err)
		}
		if result.IsError {
			t.Fatalf("call %d error result: %s", i+1, resultText(t, result))
		}
	}

	if requests.Load() != 1 {
		t.Errorf("server saw %d requests, want 1 (second query served from result cache)", requests.Load())
	}
}

func TestHandleNearestPoints(t *testing.T) {
	newTestClient(t, networkXML)

	req := newRequest("nearest_points", trondheimArgs(map[string]any{
		"latitude":  63.4015,
		"longitude": 10.2935,
	}))

	result, err := HandleNearestPoints(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleNearestPoints() error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, result))
	}

	out := decodeResult[NearestPointsOutput](t, result)
	if len(out.Ways) != 2 {
		t.Fatalf("got %d ways, want 2", len(out.Ways))
	}
	if out.Ways[0].ID != 2001 || out.Ways[1].ID != 2002 {
		t.Errorf("way order = [%d, %d], want document order [2001, 2002]",
			out.Ways[0].ID, out.Ways[1].ID)
	}
	if out.Ways[0].Distance == nil || out.Ways[1].Distance == nil {
		t.Fatal("per-way distances missing")
	}
	if *out.Ways[0].Distance >= *out.Ways[1].Distance {
		t.Errorf("way 2001 (%f) should be nearer than way 2002 (%f)",
			*out.Ways[0].Distance, *out.Ways[1].Distance)
	}
}

func TestHandleNearestPointsBadWay(t *testing.T) {
	// Way 300 has a dangling node reference; way 301 resolves.
	const brokenXML = `<osm>
  <node id="1" lat="63.4000000" lon="10.3000000"/>
  <node id="2" lat="63.4010000" lon="10.3010000"/>
  <way id="300"><nd ref="1"/><nd ref="404"/></way>
  <way id="301"><nd ref="1"/><nd ref="2"/></way>
</osm>`
	newTestClient(t, brokenXML)

	req := newRequest("nearest_points", map[string]any{
		"bbox": map[string]any{
			"minLat": 63.60, "minLon": 10.50,
			"maxLat": 63.61, "maxLon": 10.51,
		},
		"latitude":  63.605,
		"longitude": 10.505,
	})

	result, err := HandleNearestPoints(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleNearestPoints() error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, result))
	}

	out := decodeResult[NearestPointsOutput](t, result)
	if len(out.Ways) != 2 {
		t.Fatalf("got %d ways, want 2", len(out.Ways))
	}
	if out.Ways[0].Error == "" {
		t.Error("way 300 should carry a per-way error")
	}
	if out.Ways[1].Error != "" || out.Ways[1].Distance == nil {
		t.Errorf("way 301 should still resolve, got %+v", out.Ways[1])
	}
}

func TestHandleDescribeWays(t *testing.T) {
	newTestClient(t, networkXML)

	req := newRequest("describe_ways", trondheimArgs(map[string]any{
		"latitude":  63.4015,
		"longitude": 10.2935,
	}))

	result, err := HandleDescribeWays(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleDescribeWays() error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, result))
	}

	text := resultText(t, result)
	for _, want := range []string{
		"Way 2001",
		"Way 2002",
		"Distance = ",
		"highway = residential",
		"name = Nordre gate",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestHandleDescribeWaysWithoutPosition(t *testing.T) {
	newTestClient(t, networkXML)

	req := newRequest("describe_ways", trondheimArgs(nil))
	result, err := HandleDescribeWays(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleDescribeWays() error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, result))
	}

	text := resultText(t, result)
	if strings.Contains(text, "Distance = ") {
		t.Error("distances should be omitted without a query position")
	}
	if !strings.Contains(text, "Way 2001") {
		t.Errorf("output missing way listing:\n%s", text)
	}
}
