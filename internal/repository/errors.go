package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// 保存時に version が一致しなかった（他の更新が先に入った）
	ErrVersionConflict = errors.New("version conflict")
)
