// Package contentsvc talks to the external content store (a Supabase
// PostgREST endpoint) that owns material, quiz and announcement rows.
package contentsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/edulane/darasa/core"
	"github.com/edulane/darasa/core/content"
)

type supabaseStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ content.Store = (*supabaseStore)(nil)

func NewSupabaseStore(conf *core.Config) *supabaseStore {
	return &supabaseStore{
		baseURL: conf.ContentStore.BaseURL,
		apiKey:  conf.ContentStore.APIKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s supabaseStore) FindByClassroom(ctx context.Context, classroomID, typ string) ([]content.Item, error) {
	return s.find(ctx, typ, url.Values{
		"classroom_id": {"eq." + classroomID},
		"order":        {"created_at.desc"},
	})
}

func (s supabaseStore) FindBySlug(ctx context.Context, slug, typ string) ([]content.Item, error) {
	return s.find(ctx, typ, url.Values{
		"subject_slug": {"eq." + slug},
		"order":        {"created_at.desc"},
	})
}

// find queries one PostgREST table; typ doubles as the table name.
func (s supabaseStore) find(ctx context.Context, table string, query url.Values) ([]content.Item, error) {
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/%s?%s", s.baseURL, table, query.Encode()), nil)
	if err != nil {
		return nil, errors.Wrap(err, "preparing content store request")
	}
	req = req.WithContext(ctx)
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "querying content store")
	}
	defer func() { _ = res.Body.Close() }()

	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading content store response")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return nil, errors.Errorf("content store: %s - status: %d - body: %s", table, res.StatusCode, body)
	}

	// decode the known fields; keep the remainder per item in Extra
	var raw []map[string]json.RawMessage
	if err = json.Unmarshal(body, &raw); err != nil {
		return nil, errors.Wrap(err, "decoding content store response")
	}

	items := make([]content.Item, 0, len(raw))
	for _, r := range raw {
		var it content.Item
		known, err := json.Marshal(r)
		if err != nil {
			return nil, errors.Wrap(err, "decoding content item")
		}
		if err = json.Unmarshal(known, &it); err != nil {
			return nil, errors.Wrap(err, "decoding content item")
		}
		it.Extra = extraFields(r)
		items = append(items, it)
	}
	return items, nil
}

var knownFields = map[string]struct{}{
	"id": {}, "title": {}, "message": {}, "content": {}, "subject_slug": {},
	"classroom_id": {}, "file_url": {}, "quiz_url": {}, "uploaded_by": {},
	"posted_by": {}, "tags": {}, "created_at": {},
}

func extraFields(r map[string]json.RawMessage) map[string]interface{} {
	var extra map[string]interface{}
	for k, v := range r {
		if _, ok := knownFields[k]; ok {
			continue
		}
		if extra == nil {
			extra = make(map[string]interface{})
		}
		var val interface{}
		if err := json.Unmarshal(v, &val); err == nil {
			extra[k] = val
		}
	}
	return extra
}
