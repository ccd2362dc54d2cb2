// Package domain models developer push activity, daily weather observations,
// and the comparative insights derived from them.
//
// # Data Sources
//
// Activity comes from the GitHub public events API. Only push events are
// analysed; every other event type is dropped at the ingestion boundary. A push
// event contributes the number of entries in its payload's commits array, or a
// single commit when that array is missing, empty, or malformed.
//
// Weather comes from the Open-Meteo archive API as positionally aligned daily
// arrays:
//
//	{"daily": {"time": ["2024-01-01", ...],
//	           "temperature_2m_max": [12.3, ...],
//	           "precipitation_sum": [0.4, ...]}}
//
// Missing array entries and JSON nulls are legal. A null temperature yields the
// "unknown" weather bucket; a null or negative rainfall is treated as 0 mm.
//
// # Date Keys
//
// Every series is keyed by a canonical UTC calendar date in YYYY-MM-DD form.
// Keys sort lexically in chronological order and are unique within a series.
//
// Identifiers:
//
//	GitHub usernames and organization names: 1-39 characters, ASCII letters,
//	digits and single hyphens, never starting or ending with a hyphen.
//
// Weather buckets (rainfall thresholds take precedence over temperature):
//
//	rainfall > 10 mm   heavy_rain
//	rainfall > 2 mm    light_rain
//	max temp > 35 °C   hot
//	max temp > 28 °C   warm
//	max temp > 20 °C   pleasant
//	otherwise          cool
//	no temperature     unknown
//
// # Errors
//
// Failures are reported as *Error values carrying an ErrorKind. Validation and
// not-found failures are final; rate-limit, timeout and network failures are
// retryable. Aggregation errors describe single malformed records and are
// reported as warnings rather than failing a batch. See [Error].
package domain
