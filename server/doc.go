// Package server exposes caption indexing and search over HTTP.
//
// Routes:
//
//	POST   /index          build an index from {"video_id", "captions", "rebuild"?, "merge_seconds"?}
//	GET    /index/{id}     describe a stored index, 404 if there is none
//	DELETE /index/{id}     remove a stored index
//	GET    /query          ?video_id=&query=&n=&threshold=
//	POST   /query          {"video_id", "query", "n"?, "threshold"?}
//
// Every response carries permissive CORS headers and an X-Request-ID.
// Errors are JSON objects of the form {"error": "...", "request_id": "..."}.
package server
