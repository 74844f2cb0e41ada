package redisrepo

import (
	"fmt"

	"github.com/ClubHub/club-service/internal/model"
)

const (
	PROFILE_KEY          = "profile:%s"         // <userID>
	CLUB_KEY             = "club:%d"            // <clubID>
	CLUB_FEED_KEY        = "club:%d-feed:%d:%d" // <clubID>:<limit>:<offset>
	CLUB_FEED_PATTERN    = "club:%d-feed:*"     // <clubID>
	USER_CLUBS_KEY       = "user:%s-clubs"      // <userID>
	ENGAGEMENT_COUNT_KEY = "post:%d-%s-count"   // <postID>-<relation>
)

func ProfileKey(userID string) string {
	return fmt.Sprintf(PROFILE_KEY, userID)
}

func ClubKey(clubID int64) string {
	return fmt.Sprintf(CLUB_KEY, clubID)
}

func ClubFeedKey(clubID int64, limit int, offset int) string {
	return fmt.Sprintf(CLUB_FEED_KEY, clubID, limit, offset)
}

func ClubFeedPattern(clubID int64) string {
	return fmt.Sprintf(CLUB_FEED_PATTERN, clubID)
}

func UserClubsKey(userID string) string {
	return fmt.Sprintf(USER_CLUBS_KEY, userID)
}

func EngagementCountKey(postID int64, relation model.Relation) string {
	return fmt.Sprintf(ENGAGEMENT_COUNT_KEY, postID, relation)
}
