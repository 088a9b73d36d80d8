package services

import "github.com/Irvanev/hvala-dvisor-sub000/entity"

type RatingOp string

const (
	RatingCreate RatingOp = "create"
	RatingUpdate RatingOp = "update"
	RatingDelete RatingOp = "delete"
)

// RecomputeRating folds one review mutation into a restaurant's running
// average. For create and delete newRating is the review's rating; for
// update it is the new rating and oldRating the previous one.
func RecomputeRating(cur entity.Rating, op RatingOp, newRating, oldRating int) entity.Rating {
	total := cur.Average * float64(cur.Count)
	switch op {
	case RatingCreate:
		count := cur.Count + 1
		return entity.Rating{Average: (total + float64(newRating)) / float64(count), Count: count}
	case RatingUpdate:
		if cur.Count == 0 {
			return entity.Rating{}
		}
		return entity.Rating{Average: (total + float64(newRating-oldRating)) / float64(cur.Count), Count: cur.Count}
	case RatingDelete:
		count := cur.Count - 1
		if count <= 0 {
			return entity.Rating{}
		}
		return entity.Rating{Average: (total - float64(newRating)) / float64(count), Count: count}
	}
	return cur
}
