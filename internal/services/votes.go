package services

import (
	"errors"
	"log"

	"courtside/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TargetKind string

const (
	TargetComment    TargetKind = "comment"
	TargetDiscussion TargetKind = "discussion"
)

// VoteState is a user's vote on a target after an operation.
type VoteState string

const (
	VoteStateUp   VoteState = "up"
	VoteStateDown VoteState = "down"
	VoteStateNone VoteState = "none"
)

// Tally is the result of a vote: the target's counters and the caller's vote.
type Tally struct {
	Up       int       `json:"up_count"`
	Down     int       `json:"down_count"`
	UserVote VoteState `json:"user_vote"`
}

// voteTarget describes the table pair behind a target kind: the row holding
// thumbs_up/thumbs_down and the side table holding one vote per user.
type voteTarget struct {
	model     func() any
	voteModel func() any
	column    string
	newVote   func(targetID, userID uint, dir models.VoteType) any
}

var voteTargets = map[TargetKind]voteTarget{
	TargetComment: {
		model:     func() any { return &models.Comment{} },
		voteModel: func() any { return &models.CommentVote{} },
		column:    "comment_id",
		newVote: func(targetID, userID uint, dir models.VoteType) any {
			return &models.CommentVote{CommentID: targetID, UserID: userID, VoteType: dir}
		},
	},
	TargetDiscussion: {
		model:     func() any { return &models.Discussion{} },
		voteModel: func() any { return &models.DiscussionVote{} },
		column:    "discussion_id",
		newVote: func(targetID, userID uint, dir models.VoteType) any {
			return &models.DiscussionVote{DiscussionID: targetID, UserID: userID, VoteType: dir}
		},
	},
}

func lookupTarget(kind TargetKind) (voteTarget, error) {
	t, ok := voteTargets[kind]
	if !ok {
		return voteTarget{}, invalidArgument("invalid_target_kind", "unknown vote target %q", kind)
	}
	return t, nil
}

type counterRow struct {
	ID         uint
	ThumbsUp   int
	ThumbsDown int
}

type existingVote struct {
	ID       uint
	VoteType models.VoteType
}

// VoteCounter keeps one vote per (user, target) and the target's denormalized
// tallies in step. The same code serves comments and discussions.
type VoteCounter struct{}

func NewVoteCounter() *VoteCounter {
	return &VoteCounter{}
}

// ParseDirection validates an up/down string.
func ParseDirection(s string) (models.VoteType, error) {
	dir := models.VoteType(s)
	if !dir.Valid() {
		return "", invalidArgument("invalid_direction", "vote direction must be %q or %q, got %q", models.VoteUp, models.VoteDown, s)
	}
	return dir, nil
}

func delta(dir models.VoteType, n int) (up, down int) {
	if dir == models.VoteUp {
		return n, 0
	}
	return 0, n
}

// Vote applies the user's choice: a first vote is recorded, repeating the same
// direction withdraws it, and the opposite direction switches it.
func (v *VoteCounter) Vote(tx *gorm.DB, kind TargetKind, targetID, userID uint, dir models.VoteType) (Tally, error) {
	target, err := lookupTarget(kind)
	if err != nil {
		return Tally{}, err
	}
	if !dir.Valid() {
		return Tally{}, invalidArgument("invalid_direction", "vote direction must be %q or %q, got %q", models.VoteUp, models.VoteDown, dir)
	}

	var counters counterRow
	err = tx.Model(target.model()).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "thumbs_up", "thumbs_down").
		Where("id = ?", targetID).
		Take(&counters).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Tally{}, notFound(string(kind)+"_not_found", "%s #%d not found", kind, targetID)
	}
	if err != nil {
		return Tally{}, storeError("load "+string(kind), err)
	}

	var prev existingVote
	err = tx.Model(target.voteModel()).
		Select("id", "vote_type").
		Where(target.column+" = ? AND user_id = ?", targetID, userID).
		Take(&prev).Error
	hasPrev := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return Tally{}, storeError("load vote", err)
	}

	var dUp, dDown int
	state := VoteState(dir)
	switch {
	case !hasPrev:
		if err := tx.Create(target.newVote(targetID, userID, dir)).Error; err != nil {
			return Tally{}, storeError("insert vote", err)
		}
		dUp, dDown = delta(dir, 1)
	case prev.VoteType == dir:
		if err := tx.Delete(target.voteModel(), prev.ID).Error; err != nil {
			return Tally{}, storeError("delete vote", err)
		}
		dUp, dDown = delta(dir, -1)
		state = VoteStateNone
	default:
		if err := tx.Model(target.voteModel()).Where("id = ?", prev.ID).Update("vote_type", dir).Error; err != nil {
			return Tally{}, storeError("update vote", err)
		}
		upNew, downNew := delta(dir, 1)
		upOld, downOld := delta(prev.VoteType, -1)
		dUp, dDown = upNew+upOld, downNew+downOld
	}

	err = tx.Model(target.model()).Where("id = ?", targetID).UpdateColumns(map[string]any{
		"thumbs_up":   gorm.Expr("thumbs_up + ?", dUp),
		"thumbs_down": gorm.Expr("thumbs_down + ?", dDown),
	}).Error
	if err != nil {
		return Tally{}, storeError("update "+string(kind)+" counters", err)
	}

	return Tally{
		Up:       counters.ThumbsUp + dUp,
		Down:     counters.ThumbsDown + dDown,
		UserVote: state,
	}, nil
}

// Reconcile recomputes the target's counters from its vote rows and
// overwrites them when they differ.
func (v *VoteCounter) Reconcile(tx *gorm.DB, kind TargetKind, targetID uint) (up, down int, err error) {
	target, err := lookupTarget(kind)
	if err != nil {
		return 0, 0, err
	}

	var counters counterRow
	err = tx.Model(target.model()).Select("id", "thumbs_up", "thumbs_down").Where("id = ?", targetID).Take(&counters).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, 0, notFound(string(kind)+"_not_found", "%s #%d not found", kind, targetID)
	}
	if err != nil {
		return 0, 0, storeError("load "+string(kind), err)
	}

	var rows []struct {
		VoteType models.VoteType
		Total    int
	}
	err = tx.Model(target.voteModel()).
		Select("vote_type, COUNT(*) AS total").
		Where(target.column+" = ?", targetID).
		Group("vote_type").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, storeError("count votes", err)
	}
	for _, r := range rows {
		switch r.VoteType {
		case models.VoteUp:
			up = r.Total
		case models.VoteDown:
			down = r.Total
		}
	}

	if up == counters.ThumbsUp && down == counters.ThumbsDown {
		return up, down, nil
	}
	log.Printf("reconcile: %s %d counters drifted (%d/%d stored, %d/%d counted)", kind, targetID, counters.ThumbsUp, counters.ThumbsDown, up, down)
	err = tx.Model(target.model()).Where("id = ?", targetID).UpdateColumns(map[string]any{
		"thumbs_up":   up,
		"thumbs_down": down,
	}).Error
	if err != nil {
		return 0, 0, storeError("reconcile "+string(kind)+" counters", err)
	}
	return up, down, nil
}

// UserVotes returns the user's vote for each of the given targets that has one.
func (v *VoteCounter) UserVotes(tx *gorm.DB, kind TargetKind, userID uint, targetIDs []uint) (map[uint]VoteState, error) {
	out := make(map[uint]VoteState, len(targetIDs))
	if userID == 0 || len(targetIDs) == 0 {
		return out, nil
	}
	target, err := lookupTarget(kind)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		TargetID uint
		VoteType models.VoteType
	}
	err = tx.Model(target.voteModel()).
		Select(target.column+" AS target_id, vote_type").
		Where("user_id = ? AND "+target.column+" IN ?", userID, targetIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, storeError("load user votes", err)
	}
	for _, r := range rows {
		out[r.TargetID] = VoteState(r.VoteType)
	}
	return out, nil
}

// RemoveAll deletes every vote row on the target.
func (v *VoteCounter) RemoveAll(tx *gorm.DB, kind TargetKind, targetID uint) (int64, error) {
	target, err := lookupTarget(kind)
	if err != nil {
		return 0, err
	}
	res := tx.Where(target.column+" = ?", targetID).Delete(target.voteModel())
	if res.Error != nil {
		return 0, storeError("delete votes", res.Error)
	}
	return res.RowsAffected, nil
}
