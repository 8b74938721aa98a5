package infra_spotify

import (
	"context"
	"errors"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/vibevortex/core/internal/config"
	"github.com/vibevortex/core/internal/model"
)

// Client wraps the Spotify Web API. All methods take the caller's oauth
// token, which lives in the session, so one Client serves every user.
type Client struct {
	auth *spotifyauth.Authenticator
}

func New(cfg config.Spotify) *Client {
	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithRedirectURL(cfg.RedirectURI),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserModifyPlaybackState,
			spotifyauth.ScopeUserReadPlaybackState,
			spotifyauth.ScopeUserReadCurrentlyPlaying,
			spotifyauth.ScopeUserLibraryModify,
			spotifyauth.ScopeUserLibraryRead,
			spotifyauth.ScopeUserTopRead,
			spotifyauth.ScopeUserReadPrivate,
			spotifyauth.ScopePlaylistReadPrivate,
			spotifyauth.ScopePlaylistModifyPublic,
		),
	)
	return &Client{auth: auth}
}

func (c *Client) AuthURL(state string) string {
	return c.auth.AuthURL(state)
}

func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return c.auth.Exchange(ctx, code)
}

func (c *Client) api(ctx context.Context, token *oauth2.Token) *spotify.Client {
	return spotify.New(c.auth.Client(ctx, token))
}

// UserInfo returns the Spotify user id and whether the account is premium.
// Playback control only works for premium accounts.
func (c *Client) UserInfo(ctx context.Context, token *oauth2.Token) (string, bool, error) {
	me, err := c.api(ctx, token).CurrentUser(ctx)
	if err != nil {
		return "", false, err
	}
	return me.ID, me.Product == "premium", nil
}

func (c *Client) Playlists(ctx context.Context, token *oauth2.Token) ([]spotify.SimplePlaylist, error) {
	page, err := c.api(ctx, token).CurrentUsersPlaylists(ctx)
	if err != nil {
		return nil, err
	}
	return page.Playlists, nil
}

func (c *Client) Devices(ctx context.Context, token *oauth2.Token) ([]spotify.PlayerDevice, error) {
	return c.api(ctx, token).PlayerDevices(ctx)
}

func (c *Client) Play(ctx context.Context, token *oauth2.Token, uri, deviceID string) error {
	opts := &spotify.PlayOptions{
		URIs: []spotify.URI{spotify.URI(uri)},
	}
	if deviceID != "" {
		id := spotify.ID(deviceID)
		opts.DeviceID = &id
	}
	return c.api(ctx, token).PlayOpt(ctx, opts)
}

// AggregateTracks collects every track of the given playlists, following
// pagination. Episodes and local files carry no track payload and are
// skipped.
func (c *Client) AggregateTracks(ctx context.Context, token *oauth2.Token, playlistIDs []string) ([]model.Track, error) {
	api := c.api(ctx, token)

	var tracks []model.Track
	for _, playlistID := range playlistIDs {
		page, err := api.GetPlaylistItems(ctx, spotify.ID(playlistID))
		if err != nil {
			return nil, err
		}

		for {
			for _, item := range page.Items {
				if item.Track.Track == nil {
					continue
				}
				tracks = append(tracks, toTrack(item.Track.Track))
			}

			err = api.NextPage(ctx, page)
			if errors.Is(err, spotify.ErrNoMorePages) {
				break
			}
			if err != nil {
				return nil, err
			}
		}
	}
	return tracks, nil
}

func toTrack(full *spotify.FullTrack) model.Track {
	artists := make([]string, 0, len(full.Artists))
	for _, artist := range full.Artists {
		artists = append(artists, artist.Name)
	}

	var cover string
	if len(full.Album.Images) > 0 {
		cover = full.Album.Images[0].URL
	}

	return model.Track{
		Name:       full.Name,
		Artists:    artists,
		URI:        string(full.URI),
		AlbumCover: cover,
	}
}
