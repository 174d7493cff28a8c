package reddit

// listingEnvelope is the raw JSON structure of a reddit listing response.
type listingEnvelope struct {
	Kind string      `json:"kind"`
	Data listingData `json:"data"`
}

type listingData struct {
	Children []thing `json:"children"`
	Before   string  `json:"before"`
	After    string  `json:"after"`
}

// thing wraps one item in a listing. Kind is "t3" for posts, "t1" for
// comments.
type thing struct {
	Kind string    `json:"kind"`
	Data thingData `json:"data"`
}

// thingData carries the union of the post and comment fields this pipeline
// reads. Title/SelfText are empty on comments, Body is empty on posts.
type thingData struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"` // fullname, e.g. "t3_1kz3ab"; the listing anchor
	Title      string  `json:"title"`
	SelfText   string  `json:"selftext"`
	Body       string  `json:"body"`
	Subreddit  string  `json:"subreddit"`
	Author     string  `json:"author"`
	CreatedUTC float64 `json:"created_utc"`
	Score      int64   `json:"score"`
	Permalink  string  `json:"permalink"`
}

// tokenResponse is the OAuth2 token endpoint response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
