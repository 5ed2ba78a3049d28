// Package httpx holds the JSON plumbing shared by every HTTP handler.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	svcErr "github.com/oggyb/rndvu/internal/errors"
	"github.com/oggyb/rndvu/internal/utils/pagination"
)

const maxBody = 1 << 20

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorBody is the shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Error maps err to a status and writes {"error", "code"}.
// Internal causes are logged and never leak to the client.
func Error(w http.ResponseWriter, log *slog.Logger, err error) {
	se := svcErr.As(err)
	if se.Status() >= http.StatusInternalServerError && log != nil {
		log.Error("request failed", "err", err)
	}
	JSON(w, se.Status(), ErrorBody{Error: se.Message, Code: se.Code})
}

// Decode reads a JSON body into v. An empty body leaves v untouched.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return svcErr.InvalidArgument("invalid JSON body")
	}
	return nil
}

// QueryInt parses an optional integer query parameter.
func QueryInt(r *http.Request, name string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, svcErr.InvalidArgument(fmt.Sprintf("%s must be an integer", name))
	}
	return &v, nil
}

// QueryBool parses an optional boolean query parameter ("true", "1", "yes").
func QueryBool(r *http.Request, name string) bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get(name))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// PathID parses a positive integer path variable.
func PathID(r *http.Request, name string) (uint64, error) {
	v, err := strconv.ParseUint(mux.Vars(r)[name], 10, 64)
	if err != nil || v == 0 {
		return 0, svcErr.InvalidArgument(fmt.Sprintf("%s must be a positive integer", name))
	}
	return v, nil
}

// Page reads the 1-based page parameter, defaulting to 1.
func Page(r *http.Request) (int, error) {
	p, err := QueryInt(r, "page")
	if err != nil {
		return 0, err
	}
	if p == nil || *p < 1 {
		return 1, nil
	}
	return *p, nil
}

// PageInfo is the pagination envelope shared by the feeds.
type PageInfo struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
	PrevPage   *int  `json:"prev_page"`
	NextPage   *int  `json:"next_page"`
}

// NewPageInfo renders a pagination state.
func NewPageInfo(p pagination.Page) PageInfo {
	return PageInfo{
		Page:       p.Number,
		PageSize:   p.Size,
		TotalCount: p.TotalCount,
		TotalPages: p.TotalPages,
		HasPrev:    p.HasPrev(),
		HasNext:    p.HasNext(),
		PrevPage:   p.PrevPage(),
		NextPage:   p.NextPage(),
	}
}

// FlexInt is an int64 that also accepts a quoted number in JSON, as Telegram
// clients send ids both ways.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %q", s)
	}
	*f = FlexInt(v)
	return nil
}
