// Package migrations 内嵌数据库迁移脚本，启动时由 goose 应用
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
