// Package api provides the REST API of ArcadeIndexor: lobby, player and
// leaderboard queries over the indexed games plus an on-demand indexing trigger.
// @title ArcadeIndexor API
// @version 1.0
// @description REST API for querying arcade games indexed from the Aptos chain
// @contact.name API Support
// @contact.url https://github.com/goran-ethernal/ArcadeIndexor
// @license.name Apache 2.0
// @license.url https://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @basePath /api/v1
// @schemes http https
package api
