package adapter

import (
	"context"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/goerr/v2"
	"github.com/snaptheplant/fieldguide/pkg/model"
	"google.golang.org/api/iterator"
)

// BigQuery stores confirmed identifications in an observation table and
// reads aggregates back from it.
type BigQuery interface {
	// RecordObservation streams one observation row
	RecordObservation(ctx context.Context, obs *model.Observation) error

	// TopSpecies counts observations per species since the given time
	TopSpecies(ctx context.Context, since time.Time, limit int) ([]*model.SpeciesTally, error)
}

type bigqueryClient struct {
	client    *bigquery.Client
	datasetID string
	tableID   string
}

// NewBigQuery creates a new BigQuery client bound to one observation table
func NewBigQuery(ctx context.Context, projectID, datasetID, tableID string) (BigQuery, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create BigQuery client")
	}

	return &bigqueryClient{
		client:    client,
		datasetID: datasetID,
		tableID:   tableID,
	}, nil
}

// observationRow maps model.Observation to table columns
type observationRow struct {
	obs *model.Observation
}

var _ bigquery.ValueSaver = (*observationRow)(nil)

func (r *observationRow) Save() (map[string]bigquery.Value, string, error) {
	return map[string]bigquery.Value{
		"id":              string(r.obs.ID),
		"user_id":         string(r.obs.UserID),
		"species_id":      int64(r.obs.SpeciesID),
		"name":            r.obs.Name,
		"scientific_name": r.obs.ScientificName,
		"category":        string(r.obs.Category),
		"confidence":      int64(r.obs.Confidence),
		"is_new":          r.obs.IsNew,
		"observed_at":     r.obs.ObservedAt,
	}, string(r.obs.ID), nil
}

func (bq *bigqueryClient) RecordObservation(ctx context.Context, obs *model.Observation) error {
	inserter := bq.client.Dataset(bq.datasetID).Table(bq.tableID).Inserter()
	if err := inserter.Put(ctx, &observationRow{obs: obs}); err != nil {
		return goerr.Wrap(err, "failed to insert observation",
			goerr.V("dataset", bq.datasetID),
			goerr.V("table", bq.tableID),
			goerr.V("id", obs.ID))
	}
	return nil
}

func (bq *bigqueryClient) TopSpecies(ctx context.Context, since time.Time, limit int) ([]*model.SpeciesTally, error) {
	q := bq.client.Query("SELECT name, scientific_name, category, COUNT(*) AS count " +
		"FROM `" + bq.client.Project() + "." + bq.datasetID + "." + bq.tableID + "` " +
		"WHERE observed_at >= @since " +
		"GROUP BY name, scientific_name, category " +
		"ORDER BY count DESC, name " +
		"LIMIT @limit")
	q.Parameters = []bigquery.QueryParameter{
		{Name: "since", Value: since},
		{Name: "limit", Value: int64(limit)},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to run query")
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to wait for query completion")
	}
	if status.Err() != nil {
		return nil, goerr.Wrap(status.Err(), "query execution failed")
	}

	it, err := job.Read(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read query result")
	}

	var results []*model.SpeciesTally
	for {
		var row model.SpeciesTally
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate query result")
		}
		results = append(results, &row)
	}

	return results, nil
}
