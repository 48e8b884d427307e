package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers all URL shortener routes.
func RegisterRoutes(api huma.API, urlHandler *URLHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-short-url",
		Method:        http.MethodPost,
		Path:          "/shorten",
		DefaultStatus: http.StatusOK,
		Summary:       "Create short URL",
		Description:   "Returns the existing short code for the URL, or assigns a new one.",
		Tags:          []string{"URLs"},
	}, urlHandler.CreateShortURL)

	huma.Register(api, huma.Operation{
		OperationID: "lookup-short-url",
		Method:      http.MethodGet,
		Path:        "/lookup",
		Summary:     "Find the short URL of a long URL",
		Description: "Scans the mapping table for the URL; the cost grows with the table size.",
		Tags:        []string{"URLs"},
	}, urlHandler.LookupShortURL)

	huma.Register(api, huma.Operation{
		OperationID: "redirect-short-url",
		Method:      http.MethodGet,
		Path:        "/{code}",
		Summary:     "Redirect to original URL",
		Description: "Redirects to the original URL associated with the short code.",
		Tags:        []string{"URLs"},
	}, urlHandler.RedirectToURL)
}
