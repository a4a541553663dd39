// Package spatial localizes objects by letting positioned samples vote.
//
// Training samples carry a label, an SDR and the frame they were cut from.
// At prediction time every query sample pulls in the training samples whose
// SDRs match it, each translated by the query's own frame. Candidates of the
// same label whose top-left corners land within one unit of each other
// support one another; the label with the most such pairs wins the round.
// A round with no supporting pair reports the caller's "unknown" label with a
// zero frame.
package spatial
