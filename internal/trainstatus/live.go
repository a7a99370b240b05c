package trainstatus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/example/railsahayak/internal/models"
)

var ErrStationNotOnRoute = errors.New("current station not found on route")

// ist is used to render stop times the way passengers read them.
var ist = time.FixedZone("IST", 5*3600+30*60)

// RailRadarClient fetches live running status from the RailRadar HTTP API.
type RailRadarClient struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

func NewRailRadarClient(endpoint, apiKey string, timeout time.Duration) *RailRadarClient {
	return &RailRadarClient{Endpoint: endpoint, APIKey: apiKey, Client: &http.Client{Timeout: timeout}}
}

// LiveStatus is the subset of the upstream payload the resolver consumes.
type LiveStatus struct {
	TrainName           string        `json:"trainName"`
	TrainNumber         string        `json:"trainNumber"`
	OverallDelayMinutes int           `json:"overallDelayMinutes"`
	CurrentLocation     *liveLocation `json:"currentLocation"`
	Route               []liveStop    `json:"route"`
}

type liveLocation struct {
	StationCode string     `json:"stationCode"`
	Platform    flexString `json:"platform"`
}

type liveStop struct {
	Station struct {
		Name string `json:"name"`
		Code string `json:"code"`
	} `json:"station"`
	Platform             flexString `json:"platform"`
	ScheduledArrival     int64      `json:"scheduledArrival"`
	ActualArrival        int64      `json:"actualArrival"`
	ScheduledDeparture   int64      `json:"scheduledDeparture"`
	ActualDeparture      int64      `json:"actualDeparture"`
	DistanceFromOriginKm *float64   `json:"distanceFromOriginKm"`
}

// flexString accepts platforms sent either as strings or numbers.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}

// Fetch performs GET {endpoint}/trains/{trainNo}?dataType=live once.
func (c *RailRadarClient) Fetch(ctx context.Context, trainNo string) (*LiveStatus, error) {
	q := url.Values{}
	q.Set("dataType", "live")
	q.Set("provider", "railradar")
	if c.APIKey != "" {
		q.Set("key", c.APIKey)
	}
	u := fmt.Sprintf("%s/trains/%s?%s", c.Endpoint, url.PathEscape(trainNo), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("railradar status %d", resp.StatusCode)
	}
	// the payload is either wrapped in liveData or is the live object itself
	var out struct {
		LiveData *LiveStatus `json:"liveData"`
		LiveStatus
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode railradar: %w", err)
	}
	if out.LiveData != nil {
		return out.LiveData, nil
	}
	return &out.LiveStatus, nil
}

// snapshot derives current/next/previous stops by offset from the current
// station's index on the route.
func (l *LiveStatus) snapshot(input, fallbackNo string, now time.Time) (models.TrainStatus, error) {
	if l.CurrentLocation == nil {
		return models.TrainStatus{}, ErrStationNotOnRoute
	}
	idx := -1
	for i, stop := range l.Route {
		if stop.Station.Code == l.CurrentLocation.StationCode {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.TrainStatus{}, ErrStationNotOnRoute
	}
	cur := l.Route[idx]

	st := models.TrainStatus{
		TrainNo:      firstNonEmpty(l.TrainNumber, fallbackNo),
		TrainName:    firstNonEmpty(l.TrainName, "Express"),
		PNR:          "N/A",
		Status:       models.StateOnTime,
		DelayMinutes: l.OverallDelayMinutes,
		Timestamp:    now,
		CurrentStation: models.StationStop{
			Name:          cur.Station.Name,
			Code:          cur.Station.Code,
			DepartureTime: clockTime(cur.ActualDeparture, cur.ScheduledDeparture),
			Platform:      firstNonEmpty(string(cur.Platform), string(l.CurrentLocation.Platform), "?"),
		},
		NextStation:     models.NextStop{Name: "End of Line", Code: "END", ArrivalTime: "--:--"},
		PreviousStation: models.PreviousStop{Name: "Start", Code: "STR", DepartureTime: "--:--"},
	}
	if IsPNR(input) {
		st.PNR = input
	}
	if st.DelayMinutes < 0 {
		st.DelayMinutes = 0
	}
	if st.DelayMinutes > 15 {
		st.Status = models.StateDelayed
	}

	if idx < len(l.Route)-1 {
		next := l.Route[idx+1]
		st.NextStation = models.NextStop{
			Name:        next.Station.Name,
			Code:        next.Station.Code,
			ArrivalTime: clockTime(next.ActualArrival, next.ScheduledArrival),
			DistanceKm:  remainingKm(cur.DistanceFromOriginKm, next.DistanceFromOriginKm),
		}
	} else {
		st.Status = models.StateArrived
	}
	if idx > 0 {
		prev := l.Route[idx-1]
		st.PreviousStation = models.PreviousStop{
			Name:          prev.Station.Name,
			Code:          prev.Station.Code,
			DepartureTime: clockTime(prev.ActualDeparture, prev.ScheduledDeparture),
		}
	}
	return st, nil
}

// remainingKm never reports a negative or unknown distance.
func remainingKm(from, to *float64) float64 {
	if to == nil {
		return 0
	}
	var start float64
	if from != nil {
		start = *from
	}
	if *to < start {
		return 0
	}
	return *to - start
}

func clockTime(actual, scheduled int64) string {
	ts := actual
	if ts == 0 {
		ts = scheduled
	}
	if ts == 0 {
		return "--:--"
	}
	return time.UnixMilli(ts).In(ist).Format("15:04")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
