package labels

import (
	"bufio"
	"os"
	"strings"
)

// COCO is the 80 class table used by CenterNet and the YOLO TFLite models.
var COCO = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train",
	"truck", "boat", "traffic light", "fire hydrant", "stop sign",
	"parking meter", "bench", "bird", "cat", "dog", "horse", "sheep", "cow",
	"elephant", "bear", "zebra", "giraffe", "backpack", "umbrella",
	"handbag", "tie", "suitcase", "frisbee", "skis", "snowboard",
	"sports ball", "kite", "baseball bat", "baseball glove", "skateboard",
	"surfboard", "tennis racket", "bottle", "wine glass", "cup", "fork",
	"knife", "spoon", "bowl", "banana", "apple", "sandwich", "orange",
	"broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv",
	"laptop", "mouse", "remote", "keyboard", "cell phone", "microwave",
	"oven", "toaster", "sink", "refrigerator", "book", "clock", "vase",
	"scissors", "teddy bear", "hair drier", "toothbrush",
}

var ModaNet = []string{
	"bag", "belt", "boots", "footwear", "outer", "dress", "sunglasses",
	"pants", "top", "shorts", "skirt", "headwear", "scarf/tie",
}

var DeepFashion2 = []string{
	"short sleeve top", "long sleeve top", "short sleeve outwear", "long sleeve outwear",
	"vest", "sling", "shorts", "trousers", "skirt", "short sleeve dress",
	"long sleeve dress", "vest dress", "sling dress",
}

// Load reads one label per line, skipping blank lines.
func Load(filename string) ([]string, error) {
	labels := []string{}
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return labels, nil
}

func Get(labels []string, class int) string {
	label := "unknown"
	if class >= 0 && class < len(labels) {
		label = labels[class]
	}
	return label
}
