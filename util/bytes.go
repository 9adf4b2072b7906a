package util

// SplitMagnitude разбивает неотрицательное n на части не больше max.
// Команды EZ30 несут длину в одном байте, поэтому длинные перемещения
// и отрезки изображения отправляются несколькими командами.
// SplitMagnitude(0, x) возвращает nil.
func SplitMagnitude(n, max int) []int {
	if n <= 0 {
		return nil
	}
	if max <= 0 {
		return []int{n}
	}

	out := make([]int, 0, (n+max-1)/max)
	for n > 0 {
		step := n
		if step > max {
			step = max
		}
		out = append(out, step)
		n -= step
	}
	return out
}

// Chunk режет b на куски не длиннее size. size <= 0 - без разбиения.
func Chunk(b []byte, size int) [][]byte {
	if len(b) == 0 {
		return nil
	}
	if size <= 0 || len(b) <= size {
		return [][]byte{b}
	}

	out := make([][]byte, 0, (len(b)+size-1)/size)
	for len(b) > 0 {
		n := size
		if n > len(b) {
			n = len(b)
		}
		out = append(out, b[:n])
		b = b[n:]
	}
	return out
}
