package repository

import (
	"database/sql"
	"strings"
	"time"
)

// ConversationRow is a denormalized row representing either a direct or a
// circle conversation with its last message, unread count and display info.
//
// NOTE: deliberately not the full models.User / models.Message shape; keeps
// the query a single round-trip with no N+1 profile lookups.
type ConversationRow struct {
	ConversationType string         `gorm:"column:conversation_type"`
	PeerID           sql.NullInt64  `gorm:"column:peer_id"`
	PeerUsername     sql.NullString `gorm:"column:peer_username"`
	PeerFullName     sql.NullString `gorm:"column:peer_full_name"`
	PeerAvatar       sql.NullString `gorm:"column:peer_avatar"`

	CircleID     sql.NullInt64  `gorm:"column:circle_id"`
	CircleName   sql.NullString `gorm:"column:circle_name"`
	CircleAvatar sql.NullString `gorm:"column:circle_avatar"`
	MemberCount  sql.NullInt64  `gorm:"column:member_count"`

	UnreadCount int64 `gorm:"column:unread_count"`

	MessageID        uint      `gorm:"column:message_id"`
	MessageClientID  string    `gorm:"column:message_client_id"`
	MessageSenderID  uint      `gorm:"column:message_sender_id"`
	MessageContent   string    `gorm:"column:message_content"`
	MessageCreatedAt time.Time `gorm:"column:message_created_at"`
	LastActivity     time.Time `gorm:"column:last_activity"`

	SenderUsername string `gorm:"column:sender_username"`
	SenderFullName string `gorm:"column:sender_full_name"`
	SenderAvatar   string `gorm:"column:sender_avatar"`
}

// ListConversations returns every conversation the user participates in:
// one row per distinct direct peer ever messaged-with, plus every circle the
// user currently belongs to. Circles without messages use the circle's
// creation time as last activity so newly created circles still appear.
//
// Unread counts come from chat_read_states; the read-state tracker is the
// single writer of that column and this query never recomputes it.
func (r *MessageRepository) ListConversations(userID uint) ([]ConversationRow, error) {
	args := []interface{}{
		userID, userID, userID, userID, userID, userID, // dm_ranked
		userID, // circle_ranked
		userID, // circle_empty
	}

	query := strings.TrimSpace(`
WITH dm_ranked AS (
	SELECT
		'private'::text AS conversation_type,
		CASE WHEN m.sender_id = ? THEN m.recipient_id ELSE m.sender_id END AS peer_id,
		peer.username AS peer_username,
		peer.full_name AS peer_full_name,
		peer.avatar AS peer_avatar,
		NULL::bigint AS circle_id,
		NULL::text AS circle_name,
		NULL::text AS circle_avatar,
		NULL::bigint AS member_count,
		COALESCE(rs.unread_count, 0) AS unread_count,
		m.id AS message_id,
		m.client_id AS message_client_id,
		m.sender_id AS message_sender_id,
		m.content AS message_content,
		m.created_at AS message_created_at,
		m.created_at AS last_activity,
		sender.username AS sender_username,
		sender.full_name AS sender_full_name,
		sender.avatar AS sender_avatar,
		ROW_NUMBER() OVER (
			PARTITION BY CASE WHEN m.sender_id = ? THEN m.recipient_id ELSE m.sender_id END
			ORDER BY m.created_at DESC, m.id DESC
		) AS rn
	FROM messages m
	JOIN users peer ON peer.id = CASE WHEN m.sender_id = ? THEN m.recipient_id ELSE m.sender_id END
	JOIN users sender ON sender.id = m.sender_id
	LEFT JOIN chat_read_states rs
		ON rs.user_id = ?
		AND rs.chat_type = 'private'
		AND rs.chat_id = peer.id
	WHERE
		m.circle_id IS NULL
		AND m.recipient_id IS NOT NULL
		AND (m.sender_id = ? OR m.recipient_id = ?)
),
circle_ranked AS (
	SELECT
		'circle'::text AS conversation_type,
		NULL::bigint AS peer_id,
		NULL::text AS peer_username,
		NULL::text AS peer_full_name,
		NULL::text AS peer_avatar,
		c.id AS circle_id,
		c.name AS circle_name,
		c.avatar AS circle_avatar,
		(
			SELECT COUNT(*)
			FROM circle_members cm2
			WHERE cm2.circle_id = c.id
		) AS member_count,
		COALESCE(rs.unread_count, 0) AS unread_count,
		m.id AS message_id,
		m.client_id AS message_client_id,
		m.sender_id AS message_sender_id,
		m.content AS message_content,
		m.created_at AS message_created_at,
		m.created_at AS last_activity,
		sender.username AS sender_username,
		sender.full_name AS sender_full_name,
		sender.avatar AS sender_avatar,
		ROW_NUMBER() OVER (
			PARTITION BY m.circle_id
			ORDER BY m.created_at DESC, m.id DESC
		) AS rn
	FROM messages m
	JOIN circle_members cm ON cm.circle_id = m.circle_id AND cm.user_id = ?
	JOIN circles c ON c.id = m.circle_id
	LEFT JOIN chat_read_states rs
		ON rs.user_id = cm.user_id
		AND rs.chat_type = 'circle'
		AND rs.chat_id = m.circle_id
	JOIN users sender ON sender.id = m.sender_id
	WHERE m.circle_id IS NOT NULL
),
circle_empty AS (
	SELECT
		'circle'::text AS conversation_type,
		NULL::bigint AS peer_id,
		NULL::text AS peer_username,
		NULL::text AS peer_full_name,
		NULL::text AS peer_avatar,
		c.id AS circle_id,
		c.name AS circle_name,
		c.avatar AS circle_avatar,
		(
			SELECT COUNT(*)
			FROM circle_members cm2
			WHERE cm2.circle_id = c.id
		) AS member_count,
		0 AS unread_count,
		0::bigint AS message_id,
		''::text AS message_client_id,
		0::bigint AS message_sender_id,
		''::text AS message_content,
		c.created_at AS message_created_at,
		c.created_at AS last_activity,
		''::text AS sender_username,
		''::text AS sender_full_name,
		''::text AS sender_avatar,
		1 AS rn
	FROM circle_members cm
	JOIN circles c ON c.id = cm.circle_id
	WHERE cm.user_id = ?
		AND NOT EXISTS (
			SELECT 1
			FROM messages m
			WHERE m.circle_id = c.id
		)
),
combined AS (
	SELECT * FROM dm_ranked WHERE rn = 1
	UNION ALL
	SELECT * FROM circle_ranked WHERE rn = 1
	UNION ALL
	SELECT * FROM circle_empty WHERE rn = 1
)
SELECT * FROM combined c
ORDER BY c.last_activity DESC, c.message_id DESC
`)

	var rows []ConversationRow
	if err := r.db.Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}
