package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ContactRef is a lookup field pointing at a contact. The record store
// returns it either as a bare id or expanded as {"Id": 1, "Name": "..."}.
type ContactRef struct {
	ID   int    `json:"Id"`
	Name string `json:"Name,omitempty"`
}

func (c *ContactRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = ContactRef{}
		return nil
	}

	switch data[0] {
	case '{':
		var aux struct {
			ID   json.Number `json:"Id"`
			Name string      `json:"Name"`
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&aux); err != nil {
			return fmt.Errorf("contact reference: %w", err)
		}
		id, err := parseRefID(aux.ID.String())
		if err != nil {
			return err
		}
		*c = ContactRef{ID: id, Name: aux.Name}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("contact reference: %w", err)
		}
		id, err := parseRefID(s)
		if err != nil {
			return err
		}
		*c = ContactRef{ID: id}
		return nil
	default:
		id, err := parseRefID(string(data))
		if err != nil {
			return err
		}
		*c = ContactRef{ID: id}
		return nil
	}
}

func (c ContactRef) MarshalJSON() ([]byte, error) {
	if c.Name == "" {
		return []byte(strconv.Itoa(c.ID)), nil
	}
	type plain ContactRef
	return json.Marshal(plain(c))
}

// parseRefID accepts integer ids, including integral floats such as "12.0".
func parseRefID(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	if id, err := strconv.Atoi(s); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("contact reference: invalid id %q", s)
	}
	return int(f), nil
}
