package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	appLog "schedcore/internal/log"
	"schedcore/internal/model"
)

// Client reads schedule records and named-schedule evaluations from the
// CMS REST API. It satisfies the engine's Store and NamedEvaluator
// interfaces.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// wireSchedule matches the CMS's JSON field casing.
type wireSchedule struct {
	ID                        int    `json:"Id"`
	GUID                      string `json:"Guid"`
	Name                      string `json:"Name"`
	ICalendarContent          string `json:"iCalendarContent"`
	WeeklyDayOfWeek           *int   `json:"WeeklyDayOfWeek"`
	WeeklyTimeOfDay           string `json:"WeeklyTimeOfDay"`
	CheckInStartOffsetMinutes *int   `json:"CheckInStartOffsetMinutes"`
	CheckInEndOffsetMinutes   *int   `json:"CheckInEndOffsetMinutes"`
}

func (w *wireSchedule) toModel() *model.Schedule {
	return &model.Schedule{
		ID:                        w.ID,
		GUID:                      w.GUID,
		Name:                      w.Name,
		ICalendarContent:          w.ICalendarContent,
		WeeklyDayOfWeek:           w.WeeklyDayOfWeek,
		WeeklyTimeOfDay:           w.WeeklyTimeOfDay,
		CheckInStartOffsetMinutes: w.CheckInStartOffsetMinutes,
		CheckInEndOffsetMinutes:   w.CheckInEndOffsetMinutes,
	}
}

// ScheduleByID fetches one schedule record. A 404 is "not found", not
// an error.
func (c *Client) ScheduleByID(ctx context.Context, id int) (*model.Schedule, error) {
	var w wireSchedule
	found, err := c.getJSON(ctx, fmt.Sprintf("%s/Schedules/%d", c.baseURL, id), &w)
	if err != nil || !found {
		return nil, err
	}
	return w.toModel(), nil
}

// ScheduleByGUID fetches one schedule record by its GUID filter.
func (c *Client) ScheduleByGUID(ctx context.Context, guid string) (*model.Schedule, error) {
	filter := url.QueryEscape(fmt.Sprintf("Guid eq guid'%s'", guid))
	var list []wireSchedule
	found, err := c.getJSON(ctx, fmt.Sprintf("%s/Schedules?$filter=%s", c.baseURL, filter), &list)
	if err != nil || !found || len(list) == 0 {
		return nil, err
	}
	return list[0].toModel(), nil
}

type wireNamedResult struct {
	NextStartDateTime         string `json:"NextStartDateTime"`
	CheckInStartOffsetMinutes int    `json:"CheckInStartOffsetMinutes"`
	CheckInEndOffsetMinutes   int    `json:"CheckInEndOffsetMinutes"`
}

// EvaluateNamedSchedule asks the CMS's formula engine for the next
// start of a named schedule. The CMS applies business rules (holiday
// shifts, blackout dates) this engine cannot reproduce locally.
func (c *Client) EvaluateNamedSchedule(ctx context.Context, id int) (model.NamedScheduleResult, error) {
	var w wireNamedResult
	found, err := c.getJSON(ctx, fmt.Sprintf("%s/Lava/Schedule/%d", c.baseURL, id), &w)
	if err != nil {
		return model.NamedScheduleResult{}, err
	}
	if !found {
		return model.NamedScheduleResult{}, errors.New("named schedule evaluation not found")
	}
	return model.NamedScheduleResult{
		NextStartDateTime:  w.NextStartDateTime,
		StartOffsetMinutes: w.CheckInStartOffsetMinutes,
		EndOffsetMinutes:   w.CheckInEndOffsetMinutes,
	}, nil
}

// getJSON performs one authenticated GET and decodes the body into out.
// It reports found=false on 404.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization-Token", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		appLog.Error("cms request failed", err, "url", rawURL)
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		appLog.Debug("cms record not found", "url", rawURL)
		return false, nil
	case resp.StatusCode != http.StatusOK:
		err := fmt.Errorf("cms returned %s", resp.Status)
		appLog.Error("cms request rejected", err, "url", rawURL, "status", resp.StatusCode)
		return false, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(body, out); err != nil {
		appLog.Error("cms response decode failed", err, "url", rawURL)
		return false, err
	}
	return true, nil
}
