package musicbrainz

// Genre is a MusicBrainz genre entity.
type Genre struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Artist struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SortName string `json:"sort-name"`
}

type ArtistCredit struct {
	Name       string `json:"name"`
	JoinPhrase string `json:"joinphrase"`
	Artist     Artist `json:"artist"`
}

type Release struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Status       string         `json:"status"`
	Date         string         `json:"date"`
	Country      string         `json:"country"`
	ArtistCredit []ArtistCredit `json:"artist-credit"`
}

type ReleaseGroup struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	PrimaryType      string         `json:"primary-type"`
	FirstReleaseDate string         `json:"first-release-date"`
	ArtistCredit     []ArtistCredit `json:"artist-credit"`
	Genres           []GenreTag     `json:"genres"`
}

type GenreTag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Year returns the four-digit year of a release date string, or "".
func Year(date string) string {
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}
