package hidroweb

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nvxtech/hidroweb-go/internal/decode"
)

// The normalizer maps the upstream's Portuguese, loosely-typed field names
// onto the canonical schema. Every mapping is declarative: adding support
// for a new upstream spelling is a new alias entry, never ad hoc inspection.

// Alias lists per canonical field. Lookup is insensitive to case and
// underscores, so "Codigo_Estacao" and "codigoestacao" hit the same entry.
var (
	stationCodeAliases  = []string{"codigo", "codigoestacao", "estacaocodigo"}
	stationNameAliases  = []string{"nome", "estacaonome", "nomeestacao"}
	latitudeAliases     = []string{"latitude", "lat"}
	longitudeAliases    = []string{"longitude", "lon", "long"}
	altitudeAliases     = []string{"altitude"}
	stateAliases        = []string{"estado", "uf", "unidadefederativa", "siglauf"}
	municipalityAliases = []string{"municipio", "municipionome"}
	basinAliases        = []string{"bacia", "bacianome", "codigobacia"}
	subBasinAliases     = []string{"subbacia", "subbacianome"}
	operatorAliases     = []string{"operadora", "operadorasigla", "responsavel"}
	stationTypeAliases  = []string{"tipoestacao", "tipodaestacao"}

	timestampAliases = []string{"data", "datahora", "datamedicao", "datahoramedicao"}
	qualityAliases   = []string{"qualidade", "nivelconsistencia", "statusqualidade"}
	measureAliases   = []string{"tipomedicao", "grandeza"}
)

// dateLayouts are the upstream date encodings seen in the wild, most
// specific first.
var dateLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006",
}

// missingSentinels are upstream spellings of "no reading".
var missingSentinels = map[string]struct{}{
	"": {}, "null": {}, "nan": {}, "n/a": {}, "-": {}, "--": {},
}

func normalizeKey(k string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(k)), "_", "")
}

// rawField finds the first alias present in the record.
func rawField(rec decode.Record, aliases []string) (any, bool) {
	for key, v := range rec {
		nk := normalizeKey(key)
		for _, alias := range aliases {
			if nk == alias {
				return v, true
			}
		}
	}
	return nil, false
}

func stringField(rec decode.Record, aliases []string) string {
	v, ok := rawField(rec, aliases)
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

// parseDecimal coerces a raw value to a float, accepting the upstream's
// comma decimal separator. Missing sentinels return ok=false without error.
func parseDecimal(v any) (float64, bool, error) {
	switch n := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return n, true, nil
	case string:
		s := strings.TrimSpace(n)
		if _, sentinel := missingSentinels[strings.ToLower(s)]; sentinel {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err != nil {
			return 0, false, fmt.Errorf("not a number: %q", s)
		}
		return f, true, nil
	default:
		return 0, false, fmt.Errorf("not a number: %v", v)
	}
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date: %q", s)
}

// normalizeStation builds a canonical Station from a decoded record.
// A missing station code fails; missing descriptive fields default to empty.
func normalizeStation(rec decode.Record) (Station, error) {
	code := stringField(rec, stationCodeAliases)
	if code == "" {
		return Station{}, &ValidationError{Field: "code", Reason: "required field missing"}
	}

	s := Station{
		Code:         code,
		Name:         stringField(rec, stationNameAliases),
		State:        stringField(rec, stateAliases),
		Municipality: stringField(rec, municipalityAliases),
		Basin:        stringField(rec, basinAliases),
		SubBasin:     stringField(rec, subBasinAliases),
		Operator:     stringField(rec, operatorAliases),
		Type:         normalizeStationType(stringField(rec, stationTypeAliases)),
	}

	var err error
	if s.Latitude, err = coordinate(rec, latitudeAliases, "latitude", 90); err != nil {
		return Station{}, err
	}
	if s.Longitude, err = coordinate(rec, longitudeAliases, "longitude", 180); err != nil {
		return Station{}, err
	}
	if v, ok := rawField(rec, altitudeAliases); ok {
		if f, present, err := parseDecimal(v); err == nil && present {
			s.Altitude = &f
		}
	}
	return s, nil
}

func coordinate(rec decode.Record, aliases []string, field string, bound float64) (*float64, error) {
	v, ok := rawField(rec, aliases)
	if !ok {
		return nil, nil
	}
	f, present, err := parseDecimal(v)
	if err != nil {
		return nil, &ValidationError{Field: field, Value: fmt.Sprintf("%v", v), Reason: "not a decimal degree"}
	}
	if !present {
		return nil, nil
	}
	if f < -bound || f > bound {
		return nil, &ValidationError{Field: field, Value: fmt.Sprintf("%v", f), Reason: "outside valid range"}
	}
	return &f, nil
}

func normalizeStationType(raw string) StationType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pluviometrica", "pluviométrica", "2":
		return StationPluviometric
	case "fluviometrica", "fluviométrica", "1":
		return StationFluviometric
	default:
		return StationOther
	}
}

// normalizeObservation builds a canonical Observation from a decoded record
// for the requested series type. A record that declares a different
// measurement kind is rejected, never coerced. A missing value becomes a gap
// marker; a missing timestamp is a hard failure.
func normalizeObservation(rec decode.Record, kind SeriesType) (Observation, error) {
	raw := stringField(rec, timestampAliases)
	if raw == "" {
		return Observation{}, &ValidationError{Field: "timestamp", Reason: "required field missing"}
	}
	ts, err := parseDate(raw)
	if err != nil {
		return Observation{}, &ValidationError{Field: "timestamp", Value: raw, Reason: "unrecognized date format"}
	}

	if declared := stringField(rec, measureAliases); declared != "" {
		if declaredKind, ok := seriesTypeForParam(declared); ok && declaredKind != kind {
			return Observation{}, &ValidationError{
				Field:  "tipo_medicao",
				Value:  declared,
				Reason: fmt.Sprintf("measurement kind disagrees with requested %s", kind),
			}
		}
	}

	obs := Observation{
		Timestamp: ts,
		Quality:   stringField(rec, qualityAliases),
	}

	v, found := rawField(rec, []string{seriesTypeParams[kind], "valor"})
	if !found {
		if other, mismatched := foreignMeasurement(rec, kind); mismatched {
			return Observation{}, &ValidationError{
				Field:  other,
				Value:  stringField(rec, []string{other}),
				Reason: fmt.Sprintf("measurement kind disagrees with requested %s", kind),
			}
		}
		obs.Missing = true
		return obs, nil
	}

	value, present, err := parseDecimal(v)
	if err != nil {
		return Observation{}, &ValidationError{
			Field:  seriesTypeParams[kind],
			Value:  fmt.Sprintf("%v", v),
			Reason: "not a numeric reading",
		}
	}
	if !present {
		obs.Missing = true
		return obs, nil
	}
	obs.Value = value
	return obs, nil
}

func seriesTypeForParam(param string) (SeriesType, bool) {
	p := normalizeKey(param)
	for kind, name := range seriesTypeParams {
		if p == name {
			return kind, true
		}
	}
	return "", false
}

// foreignMeasurement reports whether the record carries a measurement field
// belonging to a different series type.
func foreignMeasurement(rec decode.Record, kind SeriesType) (string, bool) {
	for other, field := range seriesTypeParams {
		if other == kind {
			continue
		}
		if _, ok := rawField(rec, []string{field}); ok {
			return field, true
		}
	}
	return "", false
}
