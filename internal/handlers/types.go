package handlers

// CreateShortURLRequest is the request body for creating a short URL.
type CreateShortURLRequest struct {
	Body struct {
		URL string `doc:"The URL to shorten" example:"https://example.com/very/long/path" json:"url" minLength:"1"`
	}
}

// ShortURLBody describes a stored mapping.
type ShortURLBody struct {
	Short    string `doc:"The short code"     example:"a1B2"                               json:"short"`
	ShortURL string `doc:"The full short URL" example:"http://localhost:8888/a1B2"         json:"shortUrl"`
	LongURL  string `doc:"The original URL"   example:"https://example.com/very/long/path" json:"longUrl"`
}

// CreateShortURLResponse is the response for a successfully created short URL.
type CreateShortURLResponse struct {
	Location string `doc:"The short URL location" header:"Location"`
	Body     ShortURLBody
}

// LookupRequest asks for the code of an already shortened URL.
type LookupRequest struct {
	URL string `doc:"The original URL" example:"https://example.com/very/long/path" query:"url" required:"true"`
}

// LookupResponse is the response for a successful lookup.
type LookupResponse struct {
	Body ShortURLBody
}

// RedirectRequest is the request for redirecting a short URL.
type RedirectRequest struct {
	Code string `doc:"The short code" example:"a1B2" path:"code"`
}

// RedirectResponse redirects the client to the original URL.
type RedirectResponse struct {
	Status   int
	Location string `header:"Location"`
}
