// Package preflight checks a target before any page is opened
package preflight

import (
	"context"
	"net/http"
	"strings"

	"github.com/foomo/auditwalker/fixtures"
	"github.com/foomo/auditwalker/vo"
	"github.com/temoto/robotstxt"
)

func GetRobotsData(ctx context.Context, client fixtures.Doer, baseURL, agent string) (data *robotstxt.RobotsData, err error) {
	req, errRequest := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(baseURL, "/")+"/robots.txt", nil)
	if errRequest != nil {
		return nil, errRequest
	}
	if agent != "" {
		req.Header.Set("User-Agent", agent)
	}
	resp, errGet := client.Do(req)
	if errGet != nil {
		return nil, errGet
	}
	defer resp.Body.Close()
	data, errFromResponse := robotstxt.FromResponse(resp)
	if errFromResponse != nil {
		return nil, errFromResponse
	}
	return data, nil
}

// Forbidden public routes robots.txt does not allow for the agent,
// authenticated routes are never crawled by search engines and are skipped
func Forbidden(group *robotstxt.Group, routes []vo.RouteEntry, set fixtures.Set) (forbidden []string) {
	for _, route := range routes {
		if route.RequiresAuth {
			continue
		}
		path, errInject := set.Inject(route.Path)
		if errInject != nil {
			continue
		}
		if !group.Test(path) {
			forbidden = append(forbidden, path)
		}
	}
	return forbidden
}

// Robots fetches robots.txt and lists the forbidden routes
func Robots(ctx context.Context, client fixtures.Doer, baseURL, agent string, routes []vo.RouteEntry, set fixtures.Set) (forbidden []string, err error) {
	data, errData := GetRobotsData(ctx, client, baseURL, agent)
	if errData != nil {
		return nil, errData
	}
	return Forbidden(data.FindGroup(agent), routes, set), nil
}
