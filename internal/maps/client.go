// Package maps wraps the Google Maps Web Services used by the driver runtime:
// directions for the navigation route, reverse geocoding for destination
// labels, and text search for the location picker.
package maps

import (
	"context"
	"fmt"

	gmaps "googlemaps.github.io/maps"

	"driverhub/internal/domain/geo"
	"driverhub/internal/search"
)

// Client handles interactions with the Google Maps API.
type Client struct {
	mc     *gmaps.Client
	region string
}

// NewClient creates a maps client with the given API key. region biases
// geocoding and search results, and may be empty.
func NewClient(apiKey, region string) (*Client, error) {
	mc, err := gmaps.NewClient(gmaps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Client{mc: mc, region: region}, nil
}

// FetchRoute returns the driving route between two points as a decoded
// polyline. A nil slice with a nil error means no route was found.
func (client *Client) FetchRoute(ctx context.Context, from, to geo.LatLng) ([]geo.LatLng, error) {
	r := &gmaps.DirectionsRequest{
		Origin:      from.String(),
		Destination: to.String(),
		Mode:        gmaps.TravelModeDriving,
		Region:      client.region,
	}

	routes, _, err := client.mc.Directions(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 {
		return nil, nil
	}

	decoded, err := routes[0].OverviewPolyline.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}

	path := make([]geo.LatLng, 0, len(decoded))
	for _, p := range decoded {
		path = append(path, geo.LatLng{Lat: p.Lat, Lng: p.Lng})
	}
	return path, nil
}

// ReverseGeocode resolves a coordinate to its formatted address. An empty
// string with a nil error means the point has no known address.
func (client *Client) ReverseGeocode(ctx context.Context, point geo.LatLng, language string) (string, error) {
	r := &gmaps.GeocodingRequest{
		LatLng:   &gmaps.LatLng{Lat: point.Lat, Lng: point.Lng},
		Language: language,
	}

	results, err := client.mc.ReverseGeocode(ctx, r)
	if err != nil {
		return "", fmt.Errorf("maps api error: %w", err)
	}
	if len(results) == 0 {
		return "", nil
	}
	return results[0].FormattedAddress, nil
}

// SearchLocation runs a text search for the query and maps the hits into
// picker places. The leading address component becomes the place name.
func (client *Client) SearchLocation(ctx context.Context, query, language string) ([]search.Place, error) {
	r := &gmaps.TextSearchRequest{
		Query:    query,
		Language: language,
		Region:   client.region,
	}

	resp, err := client.mc.TextSearch(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}

	places := make([]search.Place, 0, len(resp.Results))
	for _, result := range resp.Results {
		name := result.Name
		if name == "" {
			name = result.FormattedAddress
		}
		places = append(places, search.Place{
			Name:    name,
			Address: result.FormattedAddress,
			Position: geo.LatLng{
				Lat: result.Geometry.Location.Lat,
				Lng: result.Geometry.Location.Lng,
			},
		})
	}
	return places, nil
}
