package nasa

// Wire format of the NASA Image and Video Library search endpoint
// (https://images-api.nasa.gov/search). Every optional field is a pointer or
// slice here; normalization coalesces them before anything leaves the package.

type searchResponse struct {
	Collection searchCollection `json:"collection"`
}

type searchCollection struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	Href  string       `json:"href"`
	Data  []searchData `json:"data"`
	Links []searchLink `json:"links"` // may be absent
}

type searchData struct {
	NASAID       string   `json:"nasa_id"`
	Title        string   `json:"title"`
	Center       *string  `json:"center"`
	Description  *string  `json:"description"`
	DateCreated  *string  `json:"date_created"`
	MediaType    *string  `json:"media_type"`
	Location     *string  `json:"location"`
	Photographer *string  `json:"photographer"`
	Keywords     []string `json:"keywords"`
}

type searchLink struct {
	Href   *string `json:"href"`
	Rel    *string `json:"rel"`
	Render *string `json:"render"`
	Width  *int64  `json:"width"`
	Height *int64  `json:"height"`
	Size   *int64  `json:"size"`
}
