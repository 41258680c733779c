package lunar

import "fmt"

var (
	heavenlyStems   = [10]string{"갑", "을", "병", "정", "무", "기", "경", "신", "임", "계"}
	earthlyBranches = [12]string{"자", "축", "인", "묘", "진", "사", "오", "미", "신", "유", "술", "해"}
	zodiacAnimals   = [12]string{"쥐", "소", "호랑이", "토끼", "용", "뱀", "말", "양", "원숭이", "닭", "개", "돼지"}
)

// 1984 was a 갑자 year, so (year-4) lines both cycles up at index 0.
func stemIndex(year int) int   { return mod(year-4, 10) }
func branchIndex(year int) int { return mod(year-4, 12) }

func mod(a, n int) int {
	return ((a % n) + n) % n
}

// StemBranch returns the sexagenary name of a lunar year with its zodiac
// animal, e.g. "갑진년 (용띠)" for 2024.
func StemBranch(year int) string {
	return fmt.Sprintf("%s%s년 (%s띠)",
		heavenlyStems[stemIndex(year)],
		earthlyBranches[branchIndex(year)],
		zodiacAnimals[branchIndex(year)],
	)
}

// Zodiac returns the zodiac animal of a lunar year, e.g. "용" for 2024.
func Zodiac(year int) string {
	return zodiacAnimals[branchIndex(year)]
}

func monthLabel(month, dayOfMonth int, isLeap bool) string {
	prefix := ""
	if isLeap {
		prefix = "윤"
	}
	return fmt.Sprintf("%s%d월 %d일", prefix, month, dayOfMonth)
}
