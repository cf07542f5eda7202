package mysql

// Note: `text` is reserved; keep it quoted everywhere.
const insertReviewsPrefix = "INSERT INTO reviews\n  (source_id, first_name, last_name, rating, `text`, created, avatar_url, photo_urls)\nVALUES "

// Use VALUES(col) for broad compatibility; COALESCE keeps old value if new is NULL.
const insertReviewsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  first_name = VALUES(first_name),\n" +
	"  last_name  = VALUES(last_name),\n" +
	"  rating     = VALUES(rating),\n" +
	"  `text`     = VALUES(`text`),\n" +
	"  created    = VALUES(created),\n" +
	"  avatar_url = COALESCE(VALUES(avatar_url), reviews.avatar_url),\n" +
	"  photo_urls = COALESCE(VALUES(photo_urls), reviews.photo_urls)\n"

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Paging is by insertion order so a page never shifts when rows are updated.
const listReviewsSQL = "SELECT id, source_id, first_name, last_name, rating, `text`, created, avatar_url, photo_urls\n" +
	"FROM reviews\n" +
	"ORDER BY id\n" +
	"LIMIT ? OFFSET ?"

const countReviewsSQL = `SELECT COUNT(*) FROM reviews`
