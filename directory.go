package hidroweb

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strings"

	"github.com/nvxtech/hidroweb-go/internal/decode"
	"github.com/nvxtech/hidroweb-go/internal/validation"
)

// Upstream endpoints, relative to the base URL.
const (
	stationsPath = "HidroInventarioEstacoes/v1"
	seriesPath   = "HidroSerieHistorica/v1"
)

// Upstream query parameter names. The API takes them verbatim, spaces and
// accents included.
const (
	paramStationCode = "Código da Estação"
	paramState       = "Unidade Federativa"
	paramBasin       = "Código da Bacia"
	paramDataType    = "Tipo dos Dados"
	paramStartDate   = "Data Inicial (yyyy-MM-dd)"
	paramEndDate     = "Data Final (yyyy-MM-dd)"
)

// GetStations lists stations matching the filter. Provided filter fields
// combine with AND semantics; an omitted field matches all stations.
func (c *Client) GetStations(ctx context.Context, filter StationFilter) ([]Station, error) {
	if filter.State != "" && !ValidState(filter.State) {
		return nil, &ValidationError{Field: "state", Value: filter.State, Reason: "unknown federative unit"}
	}

	params := url.Values{}
	if filter.State != "" {
		params.Set(paramState, strings.ToUpper(filter.State))
	}
	if filter.Basin != "" {
		params.Set(paramBasin, filter.Basin)
	}

	stations, err := c.fetchStations(ctx, params)
	if err != nil {
		return nil, err
	}

	// Station type is narrowed client-side; the inventory endpoint does not
	// filter on it.
	out := stations[:0]
	for _, s := range stations {
		if filter.matches(s) {
			out = append(out, s)
		}
	}
	return out, nil
}

// GetStationInfo resolves one station by its 8-digit code. A code unknown
// upstream fails with *NotFoundError, not a generic *APIError.
func (c *Client) GetStationInfo(ctx context.Context, code string) (Station, error) {
	trimmed, err := validation.StationCode(code)
	if err != nil {
		return Station{}, &ValidationError{Field: "code", Value: code, Reason: err.Error()}
	}
	code = trimmed

	params := url.Values{}
	params.Set(paramStationCode, code)

	stations, err := c.fetchStations(ctx, params)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
			return Station{}, &NotFoundError{Code: code}
		}
		return Station{}, err
	}
	if len(stations) == 0 {
		return Station{}, &NotFoundError{Code: code}
	}
	return stations[0], nil
}

// SearchStations matches query case-insensitively against station names and
// codes, ordered by relevance then code ascending. limit <= 0 applies the
// default of 50; the result never exceeds it.
func (c *Client) SearchStations(ctx context.Context, query string, limit int) ([]Station, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Field: "query", Reason: "required field missing"}
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	stations, err := c.fetchStations(ctx, url.Values{})
	if err != nil {
		return nil, err
	}

	folded := strings.ToLower(query)
	tokens := strings.Fields(folded)

	type scored struct {
		station Station
		score   int
	}
	var matches []scored
	for _, s := range stations {
		if sc := searchScore(s, folded, tokens); sc > 0 {
			matches = append(matches, scored{station: s, score: sc})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].station.Code < matches[j].station.Code
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]Station, len(matches))
	for i, m := range matches {
		out[i] = m.station
	}
	return out, nil
}

// searchScore ranks a station against a folded query: exact code beats name
// prefix beats substring beats a scattered all-token match.
func searchScore(s Station, query string, tokens []string) int {
	name := strings.ToLower(s.Name)
	code := strings.ToLower(s.Code)

	switch {
	case code == query:
		return 4
	case strings.HasPrefix(name, query):
		return 3
	case strings.Contains(name, query) || strings.Contains(code, query):
		return 2
	}

	for _, tok := range tokens {
		if !strings.Contains(name, tok) {
			return 0
		}
	}
	return 1
}

// fetchStations runs one inventory request through the full pipeline:
// transport, decoder, normalizer.
func (c *Client) fetchStations(ctx context.Context, params url.Values) ([]Station, error) {
	body, err := c.transport.Get(ctx, stationsPath, params)
	if err != nil {
		return nil, c.wrapTransportErr(err)
	}

	result, err := decode.Items(body)
	if err != nil {
		return nil, wrapDecodeErr(err)
	}

	stations := make([]Station, 0, len(result.Records))
	for _, rec := range result.Records {
		s, err := normalizeStation(rec)
		if err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	return stations, nil
}
