package service

import (
	"strings"
	"unicode/utf16"
)

// avatarColors 是无头像用户的确定性底色色板。
var avatarColors = []string{
	"#EF4444", // red-500
	"#F97316", // orange-500
	"#F59E0B", // amber-500
	"#EAB308", // yellow-500
	"#10B981", // emerald-500
	"#06B6D4", // cyan-500
	"#3B82F6", // blue-500
	"#6366F1", // indigo-500
	"#8B5CF6", // violet-500
	"#EC4899", // pink-500
	"#F43F5E", // rose-500
}

// pickAvatarColor 根据字符串确定性地从色板中取色。
// 采用 31 进制滚动哈希并按 32 位溢出取模，同一邮箱永远得到同一底色。
func pickAvatarColor(s string) string {
	if s == "" {
		return avatarColors[0]
	}
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(u)
	}
	if h < 0 {
		h = -h
	}
	return avatarColors[int(h)%len(avatarColors)]
}

// avatarInitial 取展示用的首字母：名字优先，其次邮箱，都没有则 "?"。
func avatarInitial(name, email string) string {
	for _, s := range []string{strings.TrimSpace(name), strings.TrimSpace(email)} {
		if s != "" {
			r := []rune(s)
			return strings.ToUpper(string(r[0]))
		}
	}
	return "?"
}
