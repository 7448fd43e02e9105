package verification

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/NAITIK-builds/Civitas/pkg/models"
)

// maxConcurrentPhotos bounds per-batch parallelism so one large submission
// cannot monopolize the process.
const maxConcurrentPhotos = 4

// BatchPhoto is one entry of a multi-photo submission. Err carries an
// upstream read failure (a broken multipart part, a failed fetch); such
// entries are reported but never verified.
type BatchPhoto struct {
	Filename string
	Data     []byte
	Err      error
}

// VerifyBatch verifies every photo of a batch concurrently and aggregates
// the outcomes. Result order matches input order. The batch passes only
// when every photo is individually valid and the mean score of the valid
// photos reaches the acceptance threshold.
func (s *Service) VerifyBatch(ctx context.Context, photos []BatchPhoto, req models.TaskRequirements) *models.BatchResult {
	items := make([]models.BatchItem, len(photos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPhotos)
	for i, photo := range photos {
		i, photo := i, photo
		g.Go(func() error {
			item := models.BatchItem{Filename: photo.Filename}
			if photo.Err != nil {
				item.Error = photo.Err.Error()
			} else {
				item.Result = s.VerifyPhoto(gctx, photo.Data, req)
			}
			items[i] = item
			return nil
		})
	}
	// Workers never return errors; Wait only orders the writes above.
	_ = g.Wait()

	batch := &models.BatchResult{
		TotalPhotos: len(items),
		Results:     items,
	}

	var validScoreSum float64
	for _, item := range items {
		if item.Result != nil && item.Result.IsValid {
			batch.ValidPhotos++
			validScoreSum += float64(item.Result.Score)
		}
	}

	if batch.ValidPhotos > 0 {
		batch.OverallScore = validScoreSum / float64(batch.ValidPhotos)
		batch.OverallValid = batch.ValidPhotos == batch.TotalPhotos &&
			batch.OverallScore >= float64(s.cfg.MinAcceptScore)
	}

	return batch
}
