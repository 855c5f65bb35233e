package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"spendlog/internal/core"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

var errBadBody = errors.New("invalid request body")

// amountText holds the literal text of a JSON amount. Clients send either a
// string ("12.34") or a number (12.34); numbers keep their source digits so
// no float conversion happens before the codec sees them.
type amountText string

func (a *amountText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*a = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountText(s)
	default:
		// Booleans and objects pass through and fail amount validation.
		*a = amountText(b)
	}
	return nil
}

type createExpenseRequest struct {
	Amount      amountText `json:"amount"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Date        string     `json:"date"`
}

func (req createExpenseRequest) input() core.ExpenseInput {
	return core.ExpenseInput{
		Amount:      string(req.Amount),
		Category:    req.Category,
		Description: req.Description,
		Date:        req.Date,
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// decodeJSONBody reads exactly one JSON object into dst.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", errBadBody)
	}
	return nil
}
