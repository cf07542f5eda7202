package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Review is a single fetched review. It is never mutated after decoding.
type Review struct {
	ID        int64    `json:"id,omitempty"`
	SourceID  string   `json:"-"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Rating    int      `json:"rating"`
	Text      string   `json:"text"`
	Created   string   `json:"created"`
	AvatarURL *string  `json:"avatar_url,omitempty"`
	PhotoURLs []string `json:"photo_urls,omitempty"`
}

// ReviewsPage is one page of reviews plus the server-reported total.
type ReviewsPage struct {
	Items []Review `json:"items"`
	Count int      `json:"count"`
}

// wirePage mirrors ReviewsPage with pointer fields so that a payload
// missing "items" or "count" is rejected instead of decoding to zero values.
type wirePage struct {
	Items *[]Review `json:"items"`
	Count *int      `json:"count"`
}

// DecodePage decodes a raw page payload. Any failure is a DecodeError.
func DecodePage(raw []byte) (ReviewsPage, error) {
	var w wirePage
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&w); err != nil {
		return ReviewsPage{}, Decode(err)
	}
	if w.Items == nil {
		return ReviewsPage{}, Decode(fmt.Errorf("missing items"))
	}
	if w.Count == nil {
		return ReviewsPage{}, Decode(fmt.Errorf("missing count"))
	}
	if *w.Count < 0 {
		return ReviewsPage{}, Decode(fmt.Errorf("negative count %d", *w.Count))
	}
	return ReviewsPage{Items: *w.Items, Count: *w.Count}, nil
}

// EncodePage is the inverse of DecodePage, used by providers serving the contract.
func EncodePage(p ReviewsPage) ([]byte, error) {
	if p.Items == nil {
		p.Items = []Review{}
	}
	return json.Marshal(p)
}
