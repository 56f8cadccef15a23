package provider

import (
	"encoding/json"
	"fmt"

	"github.com/numberdesk/numberdesk/internal/number_service/domain"
)

// listPage is one decoded page of a listing response. The remote APIs are
// not consistent: some return a bare JSON array, some wrap items under
// "items", "data" or "results"; items are either objects or bare strings.
type listPage struct {
	Numbers []string
	HasMore bool
}

type pagedEnvelope struct {
	Items   []json.RawMessage `json:"items"`
	Data    []json.RawMessage `json:"data"`
	Results []json.RawMessage `json:"results"`
	Total   *int              `json:"total"`
	HasMore *bool             `json:"has_more"`
}

// listItem covers the phone-number field aliases seen across providers.
type listItem struct {
	PhoneNumber string `json:"phone_number"`
	Number      string `json:"number"`
	Phone       string `json:"phone"`
	Endpoint    string `json:"endpoint"`
	ID          string `json:"id"`
}

func (i listItem) number() string {
	switch {
	case i.PhoneNumber != "":
		return i.PhoneNumber
	case i.Number != "":
		return i.Number
	case i.Phone != "":
		return i.Phone
	case i.Endpoint != "":
		return i.Endpoint
	default:
		return i.ID
	}
}

// decodeListPage extracts phone numbers from one page body. limit is the
// requested page size, used to infer has_more when the envelope omits it.
func decodeListPage(body []byte, limit int) (listPage, error) {
	var rawItems []json.RawMessage
	var page listPage

	if err := json.Unmarshal(body, &rawItems); err != nil {
		var envelope pagedEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			return listPage{}, fmt.Errorf("%w: neither paginated object nor array", domain.ErrMalformedResponse)
		}
		switch {
		case envelope.Items != nil:
			rawItems = envelope.Items
		case envelope.Data != nil:
			rawItems = envelope.Data
		case envelope.Results != nil:
			rawItems = envelope.Results
		default:
			// A decodable object without item keys is an empty listing.
			return listPage{}, nil
		}
		if envelope.HasMore != nil {
			page.HasMore = *envelope.HasMore
		} else {
			page.HasMore = len(rawItems) == limit
		}
	} else {
		page.HasMore = len(rawItems) == limit
	}

	for _, raw := range rawItems {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s != "" {
				page.Numbers = append(page.Numbers, s)
			}
			continue
		}
		var item listItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return listPage{}, fmt.Errorf("%w: unexpected list item shape", domain.ErrMalformedResponse)
		}
		if n := item.number(); n != "" {
			page.Numbers = append(page.Numbers, n)
		}
	}
	return page, nil
}

// apiError is the common error body shape of the remote APIs.
type apiError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// errorMessage extracts a human-readable message from an error body, falling
// back to the raw body when it is short enough to be useful.
func errorMessage(statusCode int, body []byte) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Detail != "" {
			return e.Detail
		}
	}
	if len(body) > 0 && len(body) < 200 {
		return string(body)
	}
	return fmt.Sprintf("provider API error: status %d", statusCode)
}
