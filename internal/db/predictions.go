package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hoopcast/hoopcast/internal/models"
)

// GetPredictionRecord loads one game and every model prediction attached
// to it. The renderer treats the result as read-only input.
func (db *DB) GetPredictionRecord(ctx context.Context, gameID string) (*models.PredictionRecord, error) {
	query := `
		SELECT
			game_id, game_date, away_team, home_team, away_abbrev, home_abbrev,
			vegas_favorite, vegas_spread, created_at
		FROM games
		WHERE game_id = $1
	`

	record := &models.PredictionRecord{}
	err := db.QueryRowContext(ctx, query, gameID).Scan(
		&record.GameID, &record.GameDate, &record.AwayTeam, &record.HomeTeam,
		&record.AwayAbbrev, &record.HomeAbbrev,
		&record.VegasFavorite, &record.VegasSpread, &record.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("game not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	predictions, err := db.getGamePredictions(ctx, gameID)
	if err != nil {
		return nil, err
	}
	record.Predictions = predictions
	record.UniquePicks = countUniquePicks(predictions)

	return record, nil
}

// ListInterestingMatchups returns the games for a date ranked by how
// divided the models are: more unique picks first, then higher prediction
// count. Records with fewer than minPredictions model picks are skipped.
func (db *DB) ListInterestingMatchups(ctx context.Context, date string, limit, minPredictions int) ([]models.PredictionRecord, error) {
	query := `
		SELECT
			g.game_id, g.game_date, g.away_team, g.home_team, g.away_abbrev, g.home_abbrev,
			g.vegas_favorite, g.vegas_spread, g.created_at
		FROM games g
		WHERE g.game_date = $1
		ORDER BY
			(SELECT COUNT(DISTINCT p.predicted_winner) FROM predictions p WHERE p.game_id = g.game_id) DESC,
			(SELECT COUNT(*) FROM predictions p WHERE p.game_id = g.game_id) DESC,
			g.game_id
	`

	rows, err := db.QueryContext(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query matchups: %w", err)
	}
	defer rows.Close()

	var records []models.PredictionRecord
	for rows.Next() {
		var record models.PredictionRecord
		err := rows.Scan(
			&record.GameID, &record.GameDate, &record.AwayTeam, &record.HomeTeam,
			&record.AwayAbbrev, &record.HomeAbbrev,
			&record.VegasFavorite, &record.VegasSpread, &record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate matchups: %w", err)
	}

	var eligible []models.PredictionRecord
	for i := range records {
		predictions, err := db.getGamePredictions(ctx, records[i].GameID)
		if err != nil {
			return nil, err
		}
		if len(predictions) < minPredictions {
			continue
		}
		records[i].Predictions = predictions
		records[i].UniquePicks = countUniquePicks(predictions)
		eligible = append(eligible, records[i])
		if len(eligible) >= limit {
			break
		}
	}

	return eligible, nil
}

func (db *DB) getGamePredictions(ctx context.Context, gameID string) ([]models.ModelPrediction, error) {
	query := `
		SELECT model_name, predicted_winner, confidence, reasoning
		FROM predictions
		WHERE game_id = $1
		ORDER BY model_name
	`

	rows, err := db.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var predictions []models.ModelPrediction
	for rows.Next() {
		var p models.ModelPrediction
		if err := rows.Scan(&p.ModelName, &p.PredictedWinner, &p.Confidence, &p.Reasoning); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, p)
	}

	return predictions, rows.Err()
}

func countUniquePicks(predictions []models.ModelPrediction) int {
	seen := make(map[string]struct{}, len(predictions))
	for _, p := range predictions {
		seen[p.PredictedWinner] = struct{}{}
	}
	return len(seen)
}
