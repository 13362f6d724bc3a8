package metrics

import "testing"

func TestNormalizePathTemplatesKnownRoutes(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/healthz", "/healthz"},
		{"/v1/businesses/biz-1/intake/items", "/v1/businesses/{business_id}/intake/items"},
		{"/v1/businesses/biz-1/permits", "/v1/businesses/{business_id}/permits"},
		{"/v1/businesses/biz-1/required-permits", "/v1/businesses/{business_id}/required-permits"},
		{"/v1/businesses/biz-1/documents", "/v1/businesses/{business_id}/documents"},
		{"/v1/businesses/biz-1/permits/export", "/v1/businesses/{business_id}/permits/export"},
		{"/v1/intake/items/item-9", "/v1/intake/items/{item_id}"},
		{"/v1/intake/items/item-9/confirm", "/v1/intake/items/{item_id}/confirm"},
	}
	for _, tc := range cases {
		if got := normalizePath(tc.path); got != tc.want {
			t.Fatalf("normalizePath(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestNormalizePathBucketsUnknownRoutes(t *testing.T) {
	for _, path := range []string{
		"/",
		"/wp-admin/setup.php",
		"/v1/businesses/biz-1/unknown-resource",
		"/v1/businesses/biz-1/permits/whatever",
		"/v1/intake/items/item-9/unknown",
		"/v1/unknown",
	} {
		if got := normalizePath(path); got != "/other" {
			t.Fatalf("normalizePath(%q) = %q, want /other", path, got)
		}
	}
}
