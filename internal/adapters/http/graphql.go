package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
	"github.com/marcdasilva/passtheplate/internal/core/ports"
)

// buildSchema creates the read-only GraphQL schema wired to our services.
// Fields resolve from the domain structs' json tags.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	donationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Donation",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"user_id":     &graphql.Field{Type: graphql.String},
			"title":       &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"category":    &graphql.Field{Type: graphql.String},
			"latitude":    &graphql.Field{Type: graphql.Float},
			"longitude":   &graphql.Field{Type: graphql.Float},
			"address":     &graphql.Field{Type: graphql.String},
			"image_url":   &graphql.Field{Type: graphql.String},
			"expiry_date": &graphql.Field{Type: graphql.String},
			"status":      &graphql.Field{Type: graphql.String},
			"claimed_by":  &graphql.Field{Type: graphql.String},
			"distance_km": &graphql.Field{Type: graphql.Float},
			"created_at":  &graphql.Field{Type: graphql.DateTime},
		},
	})

	requestType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Request",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"user_id":     &graphql.Field{Type: graphql.String},
			"title":       &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"latitude":    &graphql.Field{Type: graphql.Float},
			"longitude":   &graphql.Field{Type: graphql.Float},
			"address":     &graphql.Field{Type: graphql.String},
			"status":      &graphql.Field{Type: graphql.String},
			"created_at":  &graphql.Field{Type: graphql.DateTime},
		},
	})

	clusterType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RequestCluster",
		Fields: graphql.Fields{
			"lat":      &graphql.Field{Type: graphql.Float},
			"lng":      &graphql.Field{Type: graphql.Float},
			"count":    &graphql.Field{Type: graphql.Int},
			"requests": &graphql.Field{Type: graphql.NewList(requestType)},
		},
	})

	predictionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Prediction",
		Fields: graphql.Fields{
			"latitude":             &graphql.Field{Type: graphql.Float},
			"longitude":            &graphql.Field{Type: graphql.Float},
			"location_name":        &graphql.Field{Type: graphql.String},
			"predicted_need_score": &graphql.Field{Type: graphql.Float},
			"confidence":           &graphql.Field{Type: graphql.Float},
			"month":                &graphql.Field{Type: graphql.Int},
			"season":               &graphql.Field{Type: graphql.String},
			"food_insecurity_rate": &graphql.Field{Type: graphql.Float},
			"poverty_rate":         &graphql.Field{Type: graphql.Float},
		},
	})

	// Connection embeds MonetaryDonation, so it is flattened by hand.
	connectionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Connection",
		Fields: graphql.Fields{
			"id":             &graphql.Field{Type: graphql.String},
			"amount":         &graphql.Field{Type: graphql.Float},
			"from_latitude":  &graphql.Field{Type: graphql.Float},
			"from_longitude": &graphql.Field{Type: graphql.Float},
			"to_latitude":    &graphql.Field{Type: graphql.Float},
			"to_longitude":   &graphql.Field{Type: graphql.Float},
			"from_name":      &graphql.Field{Type: graphql.String},
			"to_name":        &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"donations": &graphql.Field{
				Type:        graphql.NewList(donationType),
				Description: "List donations, optionally by status",
				Args: graphql.FieldConfigArgument{
					"status": &graphql.ArgumentConfig{Type: graphql.String},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					status, _ := p.Args["status"].(string)
					return deps.Donations.List(p.Context, ports.DonationFilter{
						Status: domain.DonationStatus(status),
						Limit:  p.Args["limit"].(int),
					})
				},
			},
			"donation": &graphql.Field{
				Type:        donationType,
				Description: "Get a donation by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Donations.Get(p.Context, p.Args["id"].(string))
				},
			},
			"donationsNearby": &graphql.Field{
				Type:        graphql.NewList(donationType),
				Description: "Available donations near a point, closest first",
				Args: graphql.FieldConfigArgument{
					"lat":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius_km": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 10.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Donations.Nearby(p.Context,
						p.Args["lat"].(float64), p.Args["lon"].(float64), p.Args["radius_km"].(float64), 0)
				},
			},
			"requests": &graphql.Field{
				Type:        graphql.NewList(requestType),
				Description: "List requests, optionally by status",
				Args: graphql.FieldConfigArgument{
					"status": &graphql.ArgumentConfig{Type: graphql.String},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					status, _ := p.Args["status"].(string)
					return deps.Requests.List(p.Context, ports.RequestFilter{
						Status: domain.RequestStatus(status),
						Limit:  p.Args["limit"].(int),
					})
				},
			},
			"requestClusters": &graphql.Field{
				Type:        graphql.NewList(clusterType),
				Description: "Open requests grouped by proximity",
				Args: graphql.FieldConfigArgument{
					"radius_km": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 50.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Requests.Clusters(p.Context, p.Args["radius_km"].(float64))
				},
			},
			"highestNeed": &graphql.Field{
				Type:        predictionType,
				Description: "Current highest-need location",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Predictions.HighestNeed(p.Context)
				},
			},
			"predictions": &graphql.Field{
				Type:        graphql.NewList(predictionType),
				Description: "Stored predictions, newest first",
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Predictions.List(p.Context, p.Args["limit"].(int))
				},
			},
			"connections": &graphql.Field{
				Type:        graphql.NewList(connectionType),
				Description: "Monetary donations with both ends named",
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 100},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					conns, err := deps.Connections.List(p.Context, p.Args["limit"].(int))
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, 0, len(conns))
					for _, c := range conns {
						out = append(out, map[string]interface{}{
							"id":             c.ID,
							"amount":         c.Amount,
							"from_latitude":  c.FromLatitude,
							"from_longitude": c.FromLongitude,
							"to_latitude":    c.ToLatitude,
							"to_longitude":   c.ToLongitude,
							"from_name":      c.FromName,
							"to_name":        c.ToName,
						})
					}
					return out, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
