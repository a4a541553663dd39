// Package classifier associates labels with SDRs and answers which labels
// best explain a query.
//
// A Classifier combines three memories:
//
//   - a bounded per-label pattern history used by Learn and
//     GetPredictedInputValues,
//   - a spatial training pool of positioned samples used by LearnObj and
//     PredictObj,
//   - a whole-object pool used by LearnWholeObj and ValidateObj to confirm a
//     localized object.
//
// Typical use:
//
//	c, err := classifier.New(classifier.DefaultConfig("unknown"),
//		classifier.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	_ = c.Learn(ctx, "seven", sdr.SDR{3, 17, 42})
//	results, err := c.GetPredictedInputValues(ctx, sdr.SDR{3, 17, 40}, 3)
//
// A Classifier is not safe for concurrent use. Guard it with a mutex or give
// each goroutine its own instance.
//
// Labels are compared with Go ==. Pointer labels compare by identity, so use
// value types when equal values must share one history.
package classifier
