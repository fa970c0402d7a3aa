package store

const (
	documentColumns = `
		id,
		title,
		format,
		local_path,
		file_url,
		thumbnail_url,
		page_count,
		size_bytes,
		scan_mode,
		color_profile,
		text_content,
		tags,
		metadata,
		created_at,
		updated_at,
		deleted,
		deleted_at`

	getDocument = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1;`

	getAllDocuments = `
		SELECT ` + documentColumns + `
		FROM documents;`

	saveDocument = `
		INSERT INTO documents (
			id,
			title,
			format,
			local_path,
			file_url,
			thumbnail_url,
			page_count,
			size_bytes,
			scan_mode,
			color_profile,
			text_content,
			tags,
			metadata,
			created_at,
			updated_at,
			deleted,
			deleted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT(id) DO UPDATE SET
			title         = excluded.title,
			format        = excluded.format,
			local_path    = excluded.local_path,
			file_url      = excluded.file_url,
			thumbnail_url = excluded.thumbnail_url,
			page_count    = excluded.page_count,
			size_bytes    = excluded.size_bytes,
			scan_mode     = excluded.scan_mode,
			color_profile = excluded.color_profile,
			text_content  = excluded.text_content,
			tags          = excluded.tags,
			metadata      = excluded.metadata,
			created_at    = excluded.created_at,
			updated_at    = excluded.updated_at,
			deleted       = excluded.deleted,
			deleted_at    = excluded.deleted_at;`

	softDeleteDocument = `
		UPDATE documents SET
			deleted    = TRUE,
			deleted_at = $1,
			updated_at = $1
		WHERE id = $2;`

	hardDeleteDocument = `
		DELETE FROM documents
		WHERE id = $1;`

	getSyncState = `
		SELECT document_id, status, error_message, last_synced_at, retry_count
		FROM sync_states
		WHERE document_id = $1;`

	upsertSyncState = `
		INSERT INTO sync_states (document_id, status, error_message, last_synced_at, retry_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT(document_id) DO UPDATE SET
			status         = excluded.status,
			error_message  = excluded.error_message,
			last_synced_at = excluded.last_synced_at,
			retry_count    = excluded.retry_count;`

	deleteSyncState = `
		DELETE FROM sync_states
		WHERE document_id = $1;`

	getCursor = `
		SELECT cursor
		FROM sync_cursor
		WHERE id = 1;`

	setCursor = `
		INSERT INTO sync_cursor (id, cursor)
		VALUES (1, $1)
		ON CONFLICT(id) DO UPDATE SET cursor = excluded.cursor;`
)
