package recommend

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cesargomez89/lavender/internal/analysis"
	"github.com/cesargomez89/lavender/internal/constants"
	"github.com/cesargomez89/lavender/internal/domain"
	"github.com/cesargomez89/lavender/internal/httpclient"
	"github.com/cesargomez89/lavender/internal/logger"
	"github.com/cesargomez89/lavender/internal/musicbrainz"
)

// ErrSuperseded is returned when a newer resolution request made this one
// stale; its results must be discarded, never displayed.
var ErrSuperseded = errors.New("resolution superseded by a newer request")

// Analyzer is the external analysis collaborator.
type Analyzer interface {
	Analyze(ctx context.Context, songID, albumID int64, catalogLines []string) (*analysis.Recommendations, error)
}

// Result is one resolution session's output. Both lists mix selectable
// entries with headers and explanatory notes; failures along the chain show
// up as notes rather than missing output.
type Result struct {
	Session uint64             `json:"session"`
	Albums  []domain.Candidate `json:"albums"`
	Artists []domain.Candidate `json:"artists"`
}

// Resolver orchestrates the fallback chain that turns analysis output into
// candidate lists. Every session is stamped with a monotonically increasing
// id; work belonging to a superseded session is dropped at stage boundaries.
type Resolver struct {
	loader     *ContextLoader
	bridge     Analyzer
	governor   *httpclient.Client
	mbBaseURL  string
	attributor ArtistAttributor
	log        *logger.Logger

	session atomic.Uint64

	// pick selects a random index; swapped out in tests.
	pick func(n int) int
}

func NewResolver(loader *ContextLoader, bridge Analyzer, governor *httpclient.Client, mbBaseURL string, attributor ArtistAttributor, log *logger.Logger) *Resolver {
	if attributor == nil {
		attributor = NewDefaultAttributor()
	}
	return &Resolver{
		loader:     loader,
		bridge:     bridge,
		governor:   governor,
		mbBaseURL:  mbBaseURL,
		attributor: attributor,
		log:        log.WithComponent("resolver"),
		pick:       rand.IntN,
	}
}

func (r *Resolver) stale(sid uint64) bool {
	return r.session.Load() != sid
}

// Recommend resolves recommendations for the seed song. Analysis always
// completes (or fails) before either branch starts; the genre branch is
// guaranteed to terminate with a non-empty album list.
func (r *Resolver) Recommend(ctx context.Context, songID int64) (*Result, error) {
	sid := r.session.Add(1)
	log := r.log.WithSession(sid)

	rc, err := r.loader.LoadContext(songID)
	if err != nil {
		return nil, err
	}
	log.Info("resolution started", "song", rc.SongName, "artist", rc.ArtistName, "genre", rc.Genre)

	if rc.Genre == "" || strings.EqualFold(rc.Genre, constants.UnknownGenre) {
		if dominant := r.loader.DominantAlbumGenre(rc.AlbumID); dominant != "" {
			log.Debug("seed genre unknown, using album dominant genre", "genre", dominant)
			rc.Genre = dominant
		}
	}

	lines, err := r.loader.SerializeCatalog()
	if err != nil {
		return nil, err
	}

	recs, err := r.bridge.Analyze(ctx, rc.SongID, rc.AlbumID, lines)
	if err != nil {
		if errors.Is(err, analysis.ErrSuperseded) {
			return nil, ErrSuperseded
		}
		log.Warn("analysis failed, continuing with empty recommendations", "error", err)
		recs = &analysis.Recommendations{}
	}
	if r.stale(sid) {
		return nil, ErrSuperseded
	}

	res := &Result{Session: sid}

	if len(recs.Artists) == 0 && len(recs.Songs) == 0 {
		note := domain.Candidate{Display: "no valid recommendations found", Kind: domain.CandidateNote}
		res.Artists = append(res.Artists, note)
		res.Albums = append(res.Albums, note)
		return res, nil
	}

	sess := r.governor.NewSession(constants.SessionCallLimit)
	mb := musicbrainz.NewClient(r.mbBaseURL, sess)

	r.artistBranch(ctx, sid, log, mb, recs.Artists, res)
	if r.stale(sid) {
		return nil, ErrSuperseded
	}
	r.genreBranch(ctx, sid, log, mb, recs.Songs, res)
	if r.stale(sid) {
		return nil, ErrSuperseded
	}

	log.Info("resolution finished", "albums", len(res.Albums), "artists", len(res.Artists), "calls", sess.Calls())
	return res, nil
}

// artistBranch dedups analysis artists by name, then fetches the releases of
// one randomly chosen artist.
func (r *Resolver) artistBranch(ctx context.Context, sid uint64, log *logger.Logger, mb *musicbrainz.Client, artists []analysis.ArtistRec, res *Result) {
	if len(artists) == 0 {
		return
	}

	res.Artists = append(res.Artists, domain.Candidate{
		Display: "artists based on your library",
		Kind:    domain.CandidateHeader,
	})

	seen := make(map[string]bool)
	var deduped []analysis.ArtistRec
	for _, a := range artists {
		if a.Artist == "" || seen[a.Artist] {
			continue
		}
		seen[a.Artist] = true
		deduped = append(deduped, a)
		res.Artists = append(res.Artists, domain.Candidate{
			Display: fmt.Sprintf("%s (Genre: %s)", a.Artist, a.Genre),
			Artist:  a.Artist,
			Genre:   a.Genre,
			Kind:    domain.CandidateEntry,
		})
	}
	if len(deduped) == 0 {
		return
	}

	chosen := deduped[r.pick(len(deduped))].Artist
	releases, err := mb.SearchReleasesByArtist(ctx, chosen)
	if r.stale(sid) {
		return
	}
	if err != nil {
		log.Warn("release search failed", "artist", chosen, "error", err)
		res.Artists = append(res.Artists, domain.Candidate{
			Display: fmt.Sprintf("problem fetching albums: %v", err),
			Kind:    domain.CandidateNote,
		})
		return
	}

	res.Artists = append(res.Artists, domain.Candidate{
		Display: fmt.Sprintf("Albums by %s", chosen),
		Kind:    domain.CandidateHeader,
	})

	added := make(map[string]bool)
	count := 0
	for _, rel := range releases {
		if rel.Title == "" || added[rel.Title] {
			continue
		}
		added[rel.Title] = true
		count++

		display := rel.Title
		year := musicbrainz.Year(rel.Date)
		if year != "" {
			display = fmt.Sprintf("%s (%s)", rel.Title, year)
		}
		res.Artists = append(res.Artists, domain.Candidate{
			Display:  display,
			Artist:   chosen,
			Year:     year,
			SourceID: rel.ID,
			Kind:     domain.CandidateEntry,
		})
	}

	if count == 0 {
		res.Artists = append(res.Artists, domain.Candidate{
			Display: fmt.Sprintf("no albums found for %s", chosen),
			Kind:    domain.CandidateNote,
		})
	}
}

// genreBranch dedups analysis songs into album candidates, then resolves one
// randomly chosen genre through the external chain.
func (r *Resolver) genreBranch(ctx context.Context, sid uint64, log *logger.Logger, mb *musicbrainz.Client, songs []analysis.SongRec, res *Result) {
	if len(songs) == 0 {
		return
	}

	res.Albums = append(res.Albums, domain.Candidate{
		Display: "albums you might like based on your library",
		Kind:    domain.CandidateHeader,
	})

	seenAlbums := make(map[string]bool)
	seenGenres := make(map[string]bool)
	var genres []string
	for _, song := range songs {
		key := domain.AlbumKey(song.Artist, song.Album)
		if seenAlbums[key] {
			continue
		}
		seenAlbums[key] = true

		res.Albums = append(res.Albums, domain.Candidate{
			Display:  fmt.Sprintf("%s by %s", song.Album, song.Artist),
			Artist:   song.Artist,
			Genre:    song.Genre,
			SourceID: strconv.FormatInt(song.ID, 10),
			Kind:     domain.CandidateEntry,
		})

		genre := strings.TrimSpace(song.Genre)
		if genre != "" && !strings.EqualFold(genre, constants.UnknownGenre) && !seenGenres[genre] {
			seenGenres[genre] = true
			genres = append(genres, genre)
		}
	}
	if len(genres) == 0 {
		return
	}

	chosen := genres[r.pick(len(genres))]
	res.Albums = append(res.Albums, r.resolveGenreChain(ctx, sid, log, mb, chosen, seenAlbums, false)...)
}

var (
	genreVersionSuffix = regexp.MustCompile(`\.[0-9]+$`)
	genreNonAlnum      = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
)

// CleanGenre normalises a genre string for external lookup: trailing
// .<digits> version suffixes are stripped and non-alphanumeric characters
// become spaces.
func CleanGenre(genre string) string {
	cleaned := genreVersionSuffix.ReplaceAllString(genre, "")
	cleaned = genreNonAlnum.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// resolveGenreChain walks the genre fallback chain:
// genre-id lookup, releases by genre id, browse artists by tag, per-artist
// fetch, one rock/pop retry, then the curated terminal list. It always
// returns a non-empty slice unless the session went stale.
func (r *Resolver) resolveGenreChain(ctx context.Context, sid uint64, log *logger.Logger, mb *musicbrainz.Client, genre string, seenAlbums map[string]bool, isRetry bool) []domain.Candidate {
	cleaned := CleanGenre(genre)
	if len(cleaned) < constants.MinCleanGenreLen {
		cleaned = "pop"
	}

	g, err := mb.LookupGenre(ctx, cleaned)
	if r.stale(sid) {
		return nil
	}
	if err != nil {
		log.Warn("genre lookup failed", "genre", cleaned, "error", err)
	}
	if g != nil {
		groups, gerr := mb.ReleaseGroupsByGenre(ctx, g.ID)
		if r.stale(sid) {
			return nil
		}
		if gerr != nil {
			log.Warn("releases by genre id failed", "genre", g.Name, "error", gerr)
		} else if len(groups) > 0 {
			return r.aggregate(groups, nil, g.Name, seenAlbums)
		}
	}

	artists, err := mb.BrowseArtistsByTag(ctx, cleaned)
	if r.stale(sid) {
		return nil
	}
	if err != nil {
		log.Warn("artist browse failed", "genre", cleaned, "error", err)
	}
	if len(artists) == 0 {
		return r.retryOrFallback(ctx, sid, log, mb, genre, seenAlbums, isRetry)
	}

	groups, browsed := r.fetchArtistAlbums(ctx, sid, log, mb, artists)
	if r.stale(sid) {
		return nil
	}
	return r.aggregate(groups, browsed, cleaned, seenAlbums)
}

// retryOrFallback retries the chain once with the other of rock/pop, then
// terminates into the curated list.
func (r *Resolver) retryOrFallback(ctx context.Context, sid uint64, log *logger.Logger, mb *musicbrainz.Client, genre string, seenAlbums map[string]bool, isRetry bool) []domain.Candidate {
	if !isRetry {
		retryGenre := "rock"
		if strings.ToLower(genre) == "rock" {
			retryGenre = "pop"
		}
		log.Info("genre yielded nothing, retrying", "genre", genre, "retry", retryGenre)
		return r.resolveGenreChain(ctx, sid, log, mb, retryGenre, seenAlbums, true)
	}
	log.Info("genre chain exhausted, emitting curated list")
	return curatedCandidates()
}

// fetchArtistAlbums dispatches paced, concurrent release-group fetches for
// the first few browsed artists and joins with a bounded timeout, so a hung
// request cannot stall the session; whatever completed in time is
// aggregated.
func (r *Resolver) fetchArtistAlbums(ctx context.Context, sid uint64, log *logger.Logger, mb *musicbrainz.Client, artists []musicbrainz.Artist) ([]musicbrainz.ReleaseGroup, []musicbrainz.Artist) {
	n := len(artists)
	if n > constants.MaxFanoutArtists {
		n = constants.MaxFanoutArtists
	}
	selected := artists[:n]

	fanCtx, cancel := context.WithTimeout(ctx, constants.FanoutTimeout)
	defer cancel()

	var mu sync.Mutex
	results := make([][]musicbrainz.ReleaseGroup, n)

	var wg sync.WaitGroup
	for i, artist := range selected {
		wg.Add(1)
		go func(slot int, id, name string) {
			defer wg.Done()
			groups, err := mb.ReleaseGroupsByArtist(fanCtx, id, constants.AlbumsPerArtistFetch)
			if err != nil {
				// A failed fetch contributes zero albums; the others proceed.
				log.Warn("artist album fetch failed", "artist", name, "error", err)
				return
			}
			if len(groups) > constants.AlbumsPerArtistFetch {
				groups = groups[:constants.AlbumsPerArtistFetch]
			}
			mu.Lock()
			results[slot] = groups
			mu.Unlock()
		}(i, artist.ID, artist.Name)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-fanCtx.Done():
		log.Warn("artist album fan-out timed out, aggregating partial results")
	}

	mu.Lock()
	defer mu.Unlock()
	var flat []musicbrainz.ReleaseGroup
	for _, groups := range results {
		flat = append(flat, groups...)
	}
	if r.stale(sid) {
		return nil, nil
	}
	return flat, selected
}

// aggregate groups release-groups by attributed artist and renders them with
// the per-artist and total caps applied. Album keys already emitted earlier
// in the session are skipped so the dedup invariant holds across stages.
func (r *Resolver) aggregate(groups []musicbrainz.ReleaseGroup, browsed []musicbrainz.Artist, genreLabel string, seenAlbums map[string]bool) []domain.Candidate {
	out := []domain.Candidate{{
		Display: fmt.Sprintf("albums in %s genre", genreLabel),
		Kind:    domain.CandidateHeader,
	}}

	if len(groups) == 0 {
		return append(out, domain.Candidate{
			Display: fmt.Sprintf("no albums found for %s", genreLabel),
			Kind:    domain.CandidateNote,
		})
	}

	byArtist := make(map[string][]musicbrainz.ReleaseGroup)
	var order []string
	for i, rg := range groups {
		artist := r.attributor.Attribute(rg, i, browsed)
		if _, ok := byArtist[artist]; !ok {
			order = append(order, artist)
		}
		byArtist[artist] = append(byArtist[artist], rg)
	}

	total := 0
	for _, artist := range order {
		perArtist := 0
		for _, rg := range byArtist[artist] {
			if perArtist >= constants.MaxAlbumsPerArtist || total >= constants.MaxAlbumCandidates {
				break
			}
			key := domain.AlbumKey(artist, rg.Title)
			if seenAlbums[key] {
				continue
			}
			seenAlbums[key] = true

			display := fmt.Sprintf("%s by %s", rg.Title, artist)
			year := musicbrainz.Year(rg.FirstReleaseDate)
			if year != "" {
				display = fmt.Sprintf("%s by %s (%s)", rg.Title, artist, year)
			}
			out = append(out, domain.Candidate{
				Display:  display,
				Artist:   artist,
				Year:     year,
				SourceID: rg.ID,
				Kind:     domain.CandidateEntry,
			})
			perArtist++
			total++
		}
		if total >= constants.MaxAlbumCandidates {
			break
		}
	}

	if total == 0 {
		return append(out, domain.Candidate{
			Display: fmt.Sprintf("no albums found for %s", genreLabel),
			Kind:    domain.CandidateNote,
		})
	}
	return out
}
