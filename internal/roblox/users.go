package roblox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"netbot/internal/common"

	"github.com/rs/zerolog/log"
)

const (
	ROUTE_USERNAMES = "/usernames/users"
	ROUTE_USER      = "/users/%d"
	ROUTE_HEADSHOT  = "/users/avatar-headshot?userIds=%d&size=420x420&format=Png&isCircular=false"
)

const (
	PROFILE_URL       = "https://www.roblox.com/users/%d/profile"
	HEADSHOT_FALLBACK = "https://www.roblox.com/headshot-thumbnail/image?userId=%d&width=420&height=420&format=png"
)

var ErrUserNotFound = errors.New("roblox user not found")

type Profile struct {
	Id           common.RobloxId
	Name         string
	DisplayName  string
	Created      time.Time
	ThumbnailUrl string
	ProfileUrl   string
}

// The username, or whatever identifies the account best
func (profile Profile) Username() string {
	if profile.Name != "" {
		return profile.Name
	}
	if profile.DisplayName != "" {
		return profile.DisplayName
	}
	return strconv.FormatInt(int64(profile.Id), 10)
}

func (profile Profile) Display() string {
	if profile.DisplayName != "" {
		return profile.DisplayName
	}
	return profile.Username()
}

// Resolves usernames and ids against the public users and thumbnails APIs
type Users struct {
	usersUrl      string
	thumbnailsUrl string
	proxy         *common.Proxy
}

func NewUsers(usersUrl string, thumbnailsUrl string, rateLimiter *common.RateLimiter) *Users {
	return &Users{
		usersUrl:      usersUrl,
		thumbnailsUrl: thumbnailsUrl,
		proxy:         common.NewProxy(map[string]string{}, rateLimiter, 10*time.Second),
	}
}

// Find a user by numeric id or by username
func (users *Users) Lookup(ctx context.Context, query string) (Profile, error) {

	query = strings.TrimPrefix(strings.TrimSpace(query), "@")
	if query == "" {
		return Profile{}, ErrUserNotFound
	}

	var id common.RobloxId
	if number, err := strconv.ParseInt(query, 10, 64); err == nil && number > 0 {
		id = common.RobloxId(number)
	} else {
		resolved, err := users.resolveUsername(ctx, query)
		if err != nil {
			return Profile{}, err
		}
		id = resolved
	}

	data, err := users.proxy.Request(ctx, users.usersUrl+fmt.Sprintf(ROUTE_USER, id), true)
	if errors.Is(err, common.ErrNotFound) {
		return Profile{}, ErrUserNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("could not get roblox user %d: %w", id, err)
	}
	var raw struct {
		Name        string `json:"name"`
		DisplayName string `json:"displayName"`
		Created     string `json:"created"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Profile{}, fmt.Errorf("could not decode roblox user: %w", err)
	}

	profile := Profile{
		Id:          id,
		Name:        raw.Name,
		DisplayName: raw.DisplayName,
		ProfileUrl:  fmt.Sprintf(PROFILE_URL, id),
	}
	if created, err := time.Parse(time.RFC3339Nano, raw.Created); err == nil {
		profile.Created = created
	}
	profile.ThumbnailUrl = users.headshot(ctx, id)
	return profile, nil
}

func (users *Users) resolveUsername(ctx context.Context, username string) (common.RobloxId, error) {

	body, err := json.Marshal(map[string]interface{}{"usernames": []string{username}, "excludeBannedUsers": false})
	if err != nil {
		return 0, err
	}
	data, err := users.proxy.Post(ctx, users.usersUrl+ROUTE_USERNAMES, body, true)
	if err != nil {
		return 0, fmt.Errorf("could not resolve roblox username %s: %w", username, err)
	}
	var raw struct {
		Data []struct {
			Id int64 `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, fmt.Errorf("could not decode username response: %w", err)
	}
	if len(raw.Data) == 0 || raw.Data[0].Id <= 0 {
		return 0, ErrUserNotFound
	}
	return common.RobloxId(raw.Data[0].Id), nil
}

// The avatar headshot, or the classic image url when the thumbnails API has nothing
func (users *Users) headshot(ctx context.Context, id common.RobloxId) string {

	fallback := fmt.Sprintf(HEADSHOT_FALLBACK, id)
	data, err := users.proxy.Request(ctx, users.thumbnailsUrl+fmt.Sprintf(ROUTE_HEADSHOT, id), false)
	if err != nil {
		log.Debug().Err(err).Msg(fmt.Sprintf("No headshot for roblox id %d", id))
		return fallback
	}
	var raw struct {
		Data []struct {
			ImageUrl string `json:"imageUrl"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil || len(raw.Data) == 0 || raw.Data[0].ImageUrl == "" {
		return fallback
	}
	return raw.Data[0].ImageUrl
}
