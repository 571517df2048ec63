package musicbrainz

// Release is a specific issue of a recording (a pressing, a digital release...).
type Release struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Status          string          `json:"status,omitempty"`
	Date            string          `json:"date,omitempty"`
	ReleaseGroup    ReleaseGroup    `json:"release-group"`
	CoverArtArchive CoverArtArchive `json:"cover-art-archive"`
}

// ReleaseGroup groups the releases of one album, single or EP.
type ReleaseGroup struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	PrimaryType      string `json:"primary-type,omitempty"`
	FirstReleaseDate string `json:"first-release-date,omitempty"`
	Score            int    `json:"score,omitempty"` // Search relevance, 0-100
}

// CoverArtArchive summarises the artwork archived for a release.
type CoverArtArchive struct {
	Artwork bool `json:"artwork"`
	Count   int  `json:"count"`
	Front   bool `json:"front"`
	Back    bool `json:"back"`
}

// releaseGroupSearch is the body of a release-group search response.
type releaseGroupSearch struct {
	Count         int            `json:"count"`
	Offset        int            `json:"offset"`
	ReleaseGroups []ReleaseGroup `json:"release-groups"`
}
